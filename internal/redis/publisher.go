package redis

import (
	"context"
	"fmt"

	"tableside/internal/events"

	"github.com/redis/go-redis/v9"
)

// Publisher writes event envelopes to the channel of their topic.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, topic string, payload []byte) error {
	if err := p.client.Publish(ctx, events.ChannelFor(topic), payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", topic, err)
	}
	return nil
}
