package notify

import (
	"context"
	"strconv"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	Writer MessageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
	})
	return &KafkaPublisher{Writer: writer}
}

// Publish keys messages by event id so changes to one event stay ordered
// within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, change Change) error {
	msgBytes, err := change.Marshal()
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(change.Event.ID, 10)),
		Value: msgBytes,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(change.Action)},
		},
	})
}

func (p *KafkaPublisher) Name() string { return "kafka" }

func (p *KafkaPublisher) Close() error {
	return p.Writer.Close()
}
