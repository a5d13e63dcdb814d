package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ms-events/internal/config"
	"ms-events/internal/models"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Change is the message published after a successful write.
type Change struct {
	Action     string       `json:"action"`
	Event      models.Event `json:"event"`
	OccurredAt time.Time    `json:"occurred_at"`
}

func NewChange(action string, event models.Event) Change {
	return Change{Action: action, Event: event, OccurredAt: time.Now().UTC()}
}

func (c Change) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

type Publisher interface {
	Publish(ctx context.Context, change Change) error
	Name() string
	Close() error
}

// New builds the publisher selected by cfg.Backend.
func New(cfg config.NotifyConfig) (Publisher, error) {
	switch cfg.Backend {
	case "", "none":
		return Noop{}, nil
	case "kafka":
		return NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic), nil
	case "redis":
		return NewRedisPublisher(cfg.RedisAddr, cfg.RedisChannel), nil
	default:
		return nil, fmt.Errorf("unknown notify backend %q", cfg.Backend)
	}
}

type Noop struct{}

func (Noop) Publish(context.Context, Change) error { return nil }

func (Noop) Name() string { return "none" }

func (Noop) Close() error { return nil }
