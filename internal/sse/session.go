// Package sse binds one HTTP response to one registry topic as a server-sent
// event stream.
package sse

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"tableside/internal/events"
	"tableside/pkg/logger"
	"tableside/pkg/metrics"

	"go.uber.org/zap"
)

const (
	DefaultHeartbeat = 15 * time.Second
	DefaultBuffer    = 64

	transport = "sse"
)

var heartbeatFrame = []byte("event: heartbeat\ndata: ping\n\n")

var ErrStreamingUnsupported = errors.New("streaming not supported")

type Options struct {
	Heartbeat time.Duration
	Buffer    int
	Logger    *logger.Logger
	// Now stamps empty payloads. Defaults to time.Now.
	Now func() time.Time
}

// Session is one open event stream. The registry handler only enqueues; Serve
// owns the ResponseWriter.
type Session struct {
	topic   string
	w       http.ResponseWriter
	flusher http.Flusher
	frames  chan []byte
	sub     *events.Subscription
	ticker  *time.Ticker
	done    chan struct{}
	once    sync.Once
	log     *zap.Logger
	now     func() time.Time
}

// Open writes the stream headers, subscribes to topic and starts the heartbeat.
func Open(ctx context.Context, w http.ResponseWriter, bus events.Bus, topic string, opts Options) (*Session, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = DefaultHeartbeat
	}
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s := &Session{
		topic:   topic,
		w:       w,
		flusher: flusher,
		frames:  make(chan []byte, opts.Buffer),
		done:    make(chan struct{}),
		log:     logger.OrNop(opts.Logger).WithContext(ctx).With(zap.String("topic", topic)),
		now:     opts.Now,
	}
	s.sub = bus.Subscribe(topic, s.enqueue)
	s.ticker = time.NewTicker(opts.Heartbeat)
	metrics.StreamOpened(transport)
	s.log.Debug("stream opened")
	return s, nil
}

func (s *Session) Topic() string {
	return s.topic
}

func (s *Session) enqueue(_ context.Context, payload []byte) {
	select {
	case <-s.done:
		return
	default:
	}
	frame := s.dataFrame(payload)
	select {
	case s.frames <- frame:
	default:
		metrics.IncDroppedFrame(transport)
		s.log.Warn("subscriber buffer full, dropping frame")
	}
}

func (s *Session) dataFrame(payload []byte) []byte {
	if len(payload) == 0 {
		payload = []byte(strconv.FormatInt(s.now().UnixMilli(), 10))
	}
	var buf bytes.Buffer
	for _, line := range bytes.Split(payload, []byte("\n")) {
		buf.WriteString("data: ")
		buf.Write(line)
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// Serve writes frames and heartbeats until ctx ends, Close is called or a
// write fails. It always closes the session before returning.
func (s *Session) Serve(ctx context.Context) error {
	defer s.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case frame := <-s.frames:
			if err := s.write(frame); err != nil {
				return err
			}
		case <-s.ticker.C:
			if err := s.write(heartbeatFrame); err != nil {
				return err
			}
			metrics.IncHeartbeat()
		}
	}
}

func (s *Session) write(frame []byte) error {
	if _, err := s.w.Write(frame); err != nil {
		s.log.Debug("stream write failed", zap.Error(err))
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close stops the heartbeat and unsubscribes. Safe to call repeatedly.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		s.ticker.Stop()
		s.sub.Unsubscribe()
		metrics.StreamClosed(transport)
		s.log.Debug("stream closed")
	})
}
