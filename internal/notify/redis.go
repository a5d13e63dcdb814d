package notify

import (
	"context"

	"github.com/go-redis/redis/v8"
)

type RedisPublisher struct {
	Client  *redis.Client
	Channel string
}

func NewRedisPublisher(addr, channel string) *RedisPublisher {
	return &RedisPublisher{
		Client:  redis.NewClient(&redis.Options{Addr: addr}),
		Channel: channel,
	}
}

func (p *RedisPublisher) Publish(ctx context.Context, change Change) error {
	msgBytes, err := change.Marshal()
	if err != nil {
		return err
	}
	return p.Client.Publish(ctx, p.Channel, msgBytes).Err()
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Close() error {
	return p.Client.Close()
}
