package events

import "context"

// Handler receives the raw payload published on a topic. Handlers run on the
// publisher's goroutine and must not block.
type Handler func(ctx context.Context, payload []byte)

// Bus is the publish/subscribe surface services and stream handlers depend on.
type Bus interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(topic string, handler Handler) *Subscription
}

// Subscription is the handle returned by Subscribe.
type Subscription struct {
	topic  string
	id     uint64
	cancel func()
}

func (s *Subscription) Topic() string {
	return s.topic
}

// Unsubscribe removes exactly this handler. Calling it more than once is a no-op.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.cancel == nil {
		return
	}
	s.cancel()
}
