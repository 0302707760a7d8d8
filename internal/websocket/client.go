package websocket

import (
	"context"
	"strconv"
	"sync"
	"time"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/pkg/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	transport    = "websocket"
	writeTimeout = 10 * time.Second
)

// Client mirrors one topic subscription onto a WebSocket connection.
type Client struct {
	ID        string
	Principal domain.Principal
	Topic     string
	Conn      *websocket.Conn
	Send      chan []byte

	sub  *events.Subscription
	mu   sync.Mutex // serializes writes on Conn
	once sync.Once
	done chan struct{}
	now  func() time.Time
}

func NewClient(conn *websocket.Conn, p domain.Principal, topic string, buffer int) *Client {
	if buffer <= 0 {
		buffer = 64
	}
	return &Client{
		ID:        uuid.NewString(),
		Principal: p,
		Topic:     topic,
		Conn:      conn,
		Send:      make(chan []byte, buffer),
		done:      make(chan struct{}),
		now:       time.Now,
	}
}

// Attach subscribes the client to its topic.
func (c *Client) Attach(bus events.Bus) {
	c.sub = bus.Subscribe(c.Topic, func(_ context.Context, payload []byte) {
		c.SendMessage(payload)
	})
	metrics.StreamOpened(transport)
}

// SendMessage queues a payload without blocking the publisher. An empty
// payload is sent as the current Unix time in milliseconds.
func (c *Client) SendMessage(msg []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	if len(msg) == 0 {
		msg = []byte(strconv.FormatInt(c.now().UnixMilli(), 10))
	}
	select {
	case c.Send <- msg:
	default:
		metrics.IncDroppedFrame(transport)
	}
}

// WriteLoop sends queued payloads as text frames and pings every interval.
func (c *Client) WriteLoop(ctx context.Context, pingInterval time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case msg := <-c.Send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
			metrics.IncHeartbeat()
		}
	}
}

// ReadLoop discards inbound frames and returns when the peer goes away.
func (c *Client) ReadLoop(idle time.Duration) {
	defer c.Close()
	_ = c.Conn.SetReadDeadline(time.Now().Add(idle))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(idle))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
		_ = c.Conn.SetReadDeadline(time.Now().Add(idle))
	}
}

func (c *Client) write(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.Conn.WriteMessage(messageType, data)
}

// Close unsubscribes and closes the connection. Safe to call repeatedly.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		if c.sub != nil {
			c.sub.Unsubscribe()
			metrics.StreamClosed(transport)
		}
		c.mu.Lock()
		_ = c.Conn.Close()
		c.mu.Unlock()
	})
}
