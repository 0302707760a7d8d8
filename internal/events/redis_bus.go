package events

import (
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"tableside/pkg/logger"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const ChannelPrefix = "tableside:events:"

// TopicPublisher is satisfied by internal/redis.Publisher, which maps a topic
// to its Redis channel.
type TopicPublisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// PatternSubscriber is satisfied by internal/redis.Subscriber. ready is called
// once the subscription is confirmed.
type PatternSubscriber interface {
	Subscribe(ctx context.Context, patterns []string, ready func(), handler func(channel string, payload []byte)) error
}

type envelope struct {
	Topic   string `json:"topic"`
	Payload []byte `json:"payload"`
}

// RedisBus relays publishes through Redis pub/sub so every instance's local
// registry sees them. Delivery stays at-most-once.
type RedisBus struct {
	local    *Registry
	pub      TopicPublisher
	sub      PatternSubscriber
	log      *logger.Logger
	relaying atomic.Bool

	retryInitial time.Duration
	retryMax     time.Duration
}

func NewRedisBus(local *Registry, pub TopicPublisher, sub PatternSubscriber, log *logger.Logger) *RedisBus {
	return &RedisBus{
		local:        local,
		pub:          pub,
		sub:          sub,
		log:          logger.OrNop(log).Named("redis_bus"),
		retryInitial: 500 * time.Millisecond,
		retryMax:     30 * time.Second,
	}
}

func ChannelFor(topic string) string {
	return ChannelPrefix + topic
}

// Relaying reports whether the Redis subscription is live.
func (b *RedisBus) Relaying() bool {
	return b.relaying.Load()
}

// Publish sends the payload to Redis. While the relay is down, or when Redis
// rejects the payload, it goes to this instance's listeners only.
func (b *RedisBus) Publish(ctx context.Context, topic string, payload []byte) error {
	if !b.relaying.Load() {
		return b.local.Publish(ctx, topic, payload)
	}
	data, err := json.Marshal(envelope{Topic: topic, Payload: payload})
	if err != nil {
		return err
	}
	if err := b.pub.Publish(ctx, topic, data); err != nil {
		b.log.WithContext(ctx).Warn("redis publish failed, delivering locally",
			zap.String("topic", topic), zap.Error(err))
		_ = b.local.Publish(ctx, topic, payload)
		return err
	}
	return nil
}

func (b *RedisBus) Subscribe(topic string, handler Handler) *Subscription {
	return b.local.Subscribe(topic, handler)
}

// Run relays Redis messages into the local registry until ctx ends. A failed
// or dropped subscription is retried with exponential backoff.
func (b *RedisBus) Run(ctx context.Context) error {
	policy := &backoff.ExponentialBackOff{
		InitialInterval:     b.retryInitial,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          2,
		MaxInterval:         b.retryMax,
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	policy.Reset()

	patterns := []string{ChannelPrefix + "*"}
	ready := func() {
		policy.Reset()
		b.relaying.Store(true)
		b.log.Logger.Info("relaying events from redis", zap.String("pattern", patterns[0]))
	}

	for {
		err := b.sub.Subscribe(ctx, patterns, ready, func(channel string, data []byte) {
			b.relay(ctx, channel, data)
		})
		b.relaying.Store(false)
		if ctx.Err() != nil {
			return nil
		}

		delay := policy.NextBackOff()
		b.log.Logger.Warn("redis relay down, delivering locally until it resubscribes",
			zap.Error(err), zap.Duration("retry_in", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (b *RedisBus) relay(ctx context.Context, channel string, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		b.log.Logger.Warn("dropping malformed relay message", zap.String("channel", channel), zap.Error(err))
		return
	}
	if env.Topic == "" {
		env.Topic = strings.TrimPrefix(channel, ChannelPrefix)
	}
	_ = b.local.Publish(ctx, env.Topic, env.Payload)
}
