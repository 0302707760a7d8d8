package events

import (
	"context"
	"sort"
	"sync"

	"tableside/pkg/logger"
	"tableside/pkg/metrics"

	"go.uber.org/zap"
)

type listener struct {
	id      uint64
	handler Handler
}

// Registry is the in-process topic registry. Publish fans a payload out to every
// listener of a topic synchronously and in registration order.
type Registry struct {
	mu        sync.RWMutex
	listeners map[string][]listener
	nextID    uint64
	log       *logger.Logger
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		listeners: make(map[string][]listener),
		log:       logger.OrNop(log).Named("events"),
	}
}

func (r *Registry) Subscribe(topic string, handler Handler) *Subscription {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.listeners[topic] = append(r.listeners[topic], listener{id: id, handler: handler})
	r.mu.Unlock()

	var once sync.Once
	return &Subscription{
		topic: topic,
		id:    id,
		cancel: func() {
			once.Do(func() { r.remove(topic, id) })
		},
	}
}

func (r *Registry) remove(topic string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.listeners[topic]
	for i, l := range current {
		if l.id != id {
			continue
		}
		next := make([]listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		if len(next) == 0 {
			delete(r.listeners, topic)
		} else {
			r.listeners[topic] = next
		}
		return
	}
}

// Publish never fails; the error return satisfies Bus.
func (r *Registry) Publish(ctx context.Context, topic string, payload []byte) error {
	r.mu.RLock()
	snapshot := r.listeners[topic]
	r.mu.RUnlock()

	metrics.IncEventPublished(topic)
	if len(snapshot) == 0 {
		return nil
	}

	// remove() swaps in a fresh slice, so snapshot is never mutated under us.
	for _, l := range snapshot {
		r.invoke(ctx, topic, l, payload)
	}
	return nil
}

func (r *Registry) invoke(ctx context.Context, topic string, l listener, payload []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			metrics.IncListenerPanic()
			r.log.WithContext(ctx).Error("listener panicked",
				zap.String("topic", topic),
				zap.Uint64("listener_id", l.id),
				zap.Any("panic", rec),
			)
		}
	}()
	l.handler(ctx, payload)
}

// SubscriberCount returns the number of listeners currently registered on topic.
func (r *Registry) SubscriberCount(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners[topic])
}

// Topics lists topics with at least one listener, sorted.
func (r *Registry) Topics() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.listeners))
	for t := range r.listeners {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
