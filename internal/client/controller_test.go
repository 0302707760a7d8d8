package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"tableside/internal/events"
	"tableside/internal/sse"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestNewBackOffDefaults(t *testing.T) {
	want := []time.Duration{1000, 2000, 4000, 8000, 16000, 30000, 30000, 30000, 30000, 30000}
	b := NewBackOff(DefaultInitialDelay, DefaultMaxDelay)
	for attempt, ms := range want {
		if got := b.NextBackOff(); got != ms*time.Millisecond {
			t.Errorf("backoff %d = %v, want %v", attempt, got, ms*time.Millisecond)
		}
	}
	b.Reset()
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("backoff after Reset = %v, want 1s", got)
	}
}

// pipeConnector fails the first failFirst calls, then hands out pipes the
// test can close to end the stream.
type pipeConnector struct {
	mu        sync.Mutex
	failFirst int
	calls     int
	urls      []string
	writers   []*io.PipeWriter
}

func (p *pipeConnector) Connect(ctx context.Context, url string) (io.ReadCloser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.urls = append(p.urls, url)
	if p.calls <= p.failFirst {
		return nil, errors.New("connection refused")
	}
	pr, pw := io.Pipe()
	p.writers = append(p.writers, pw)
	return pr, nil
}

func (p *pipeConnector) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *pipeConnector) lastURL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.urls) == 0 {
		return ""
	}
	return p.urls[len(p.urls)-1]
}

func (p *pipeConnector) last() *io.PipeWriter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writers[len(p.writers)-1]
}

type delayLog struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (d *delayLog) record(_ int, delay time.Duration) {
	d.mu.Lock()
	d.delays = append(d.delays, delay)
	d.mu.Unlock()
}

func (d *delayLog) get() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.delays...)
}

func TestControllerBacksOffUntilCap(t *testing.T) {
	conn := &pipeConnector{failFirst: 1 << 20}
	log := &delayLog{}
	c := NewController(Options{
		Connector:            conn,
		InitialDelay:         time.Millisecond,
		MaxDelay:             4 * time.Millisecond,
		OnReconnectScheduled: log.record,
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return len(log.get()) >= 5 })
	c.Close()

	want := []time.Duration{1, 2, 4, 4, 4}
	got := log.get()
	for i, ms := range want {
		if got[i] != ms*time.Millisecond {
			t.Errorf("delay %d = %v, want %v", i, got[i], ms*time.Millisecond)
		}
	}
	if c.Attempt() != 0 {
		t.Errorf("Attempt() after Close = %d, want 0", c.Attempt())
	}
	if c.LastError() == nil {
		t.Error("LastError() = nil after failed connects")
	}

	calls := conn.Calls()
	time.Sleep(20 * time.Millisecond)
	if conn.Calls() != calls {
		t.Errorf("connector called %d more times after Close", conn.Calls()-calls)
	}
}

func TestControllerAttemptReset(t *testing.T) {
	tests := []struct {
		name           string
		resetOnConnect bool
		wantAttempt    int
		wantNextDelay  time.Duration
	}{
		{name: "kept across connects", resetOnConnect: false, wantAttempt: 2, wantNextDelay: 4 * time.Millisecond},
		{name: "reset on connect", resetOnConnect: true, wantAttempt: 0, wantNextDelay: time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &pipeConnector{failFirst: 2}
			log := &delayLog{}
			c := NewController(Options{
				Connector:            conn,
				InitialDelay:         time.Millisecond,
				MaxDelay:             time.Second,
				ResetOnConnect:       tt.resetOnConnect,
				OnReconnectScheduled: log.record,
			})
			defer c.Close()
			if err := c.Start(context.Background()); err != nil {
				t.Fatal(err)
			}

			waitFor(t, c.Connected)
			if got := c.Attempt(); got != tt.wantAttempt {
				t.Errorf("Attempt() = %d, want %d", got, tt.wantAttempt)
			}

			conn.last().Close()
			waitFor(t, func() bool { return len(log.get()) == 3 })
			if got := log.get()[2]; got != tt.wantNextDelay {
				t.Errorf("delay after stream end = %v, want %v", got, tt.wantNextDelay)
			}
		})
	}
}

func TestControllerSchedulesOneTimer(t *testing.T) {
	log := &delayLog{}
	c := NewController(Options{
		Connector:            &pipeConnector{},
		InitialDelay:         time.Hour,
		OnReconnectScheduled: log.record,
	})

	c.mu.Lock()
	c.ctx = context.Background()
	c.started = true
	c.gen = 1
	c.mu.Unlock()

	c.fail(1, errors.New("first"))
	c.fail(1, errors.New("second"))
	if n := len(log.get()); n != 1 {
		t.Fatalf("scheduled %d reconnects, want 1", n)
	}

	c.Close()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		t.Error("timer still pending after Close")
	}
}

func TestControllerSetTopicURL(t *testing.T) {
	conn := &pipeConnector{failFirst: 1}
	c := NewController(Options{
		URL:          "http://host/v1/orders/1/stream",
		Connector:    conn,
		InitialDelay: time.Millisecond,
	})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, c.Connected)
	if c.Attempt() != 1 {
		t.Fatalf("Attempt() = %d, want 1", c.Attempt())
	}
	first := conn.last()

	c.SetTopicURL("http://host/v1/orders/2/stream")
	if c.Attempt() != 0 {
		t.Errorf("Attempt() after SetTopicURL = %d, want 0", c.Attempt())
	}
	waitFor(t, func() bool { return conn.lastURL() == "http://host/v1/orders/2/stream" && c.Connected() })

	if _, err := io.WriteString(first, "data: 1\n\n"); err == nil {
		t.Error("previous connection still open after SetTopicURL")
	}
}

// blockingConnector never answers until the request is cancelled.
type blockingConnector struct {
	started  chan struct{}
	returned chan error
}

func (b *blockingConnector) Connect(ctx context.Context, _ string) (io.ReadCloser, error) {
	close(b.started)
	<-ctx.Done()
	b.returned <- ctx.Err()
	return nil, ctx.Err()
}

func TestControllerCloseCancelsConnection(t *testing.T) {
	conn := &blockingConnector{started: make(chan struct{}), returned: make(chan error, 1)}
	log := &delayLog{}
	c := NewController(Options{Connector: conn, InitialDelay: time.Millisecond, OnReconnectScheduled: log.record})
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	<-conn.started
	c.Close()

	select {
	case err := <-conn.returned:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("connect returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("connection not cancelled by Close")
	}
	time.Sleep(10 * time.Millisecond)
	if n := len(log.get()); n != 0 {
		t.Errorf("scheduled %d reconnects after Close", n)
	}
}

func TestControllerStopsWithContext(t *testing.T) {
	conn := &pipeConnector{failFirst: 1 << 20}
	c := NewController(Options{Connector: conn, InitialDelay: 5 * time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return conn.Calls() >= 2 })
	cancel()
	waitFor(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.closed
	})

	calls := conn.Calls()
	time.Sleep(30 * time.Millisecond)
	if conn.Calls() != calls {
		t.Error("controller reconnected after its context ended")
	}
}

func TestControllerKeepsConnectionOnBadPayload(t *testing.T) {
	conn := &pipeConnector{}
	var (
		mu     sync.Mutex
		toasts []Toast
	)
	log := &delayLog{}
	c := NewController(Options{
		Connector: conn,
		Callbacks: Callbacks{OnToast: func(t Toast) {
			mu.Lock()
			toasts = append(toasts, t)
			mu.Unlock()
		}},
		OnReconnectScheduled: log.record,
	})
	defer c.Close()
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, c.Connected)

	w := conn.last()
	go func() {
		io.WriteString(w, "data: {broken\n\n")
		io.WriteString(w, "data: "+string(events.NewMessage(events.TypeMessage, "still here"))+"\n\n")
	}()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(toasts) == 1
	})
	if c.LastError() == nil {
		t.Error("LastError() = nil after malformed payload")
	}
	if !c.Connected() {
		t.Error("connection dropped after malformed payload")
	}
	if n := len(log.get()); n != 0 {
		t.Errorf("scheduled %d reconnects after malformed payload", n)
	}
	mu.Lock()
	defer mu.Unlock()
	if toasts[0].Message != "still here" {
		t.Errorf("toast = %+v", toasts[0])
	}
}

func TestControllerMergesBasketFromStream(t *testing.T) {
	reg := events.NewRegistry(nil)
	topic := events.MenuNotificationsTopic(5)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer guest-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		s, err := sse.Open(r.Context(), w, reg, topic, sse.Options{Heartbeat: 5 * time.Millisecond})
		if err != nil {
			t.Error(err)
			return
		}
		defer s.Close()
		s.Serve(r.Context())
	}))
	defer srv.Close()

	c := NewController(Options{
		URL:       srv.URL,
		Connector: HTTPConnector{Client: srv.Client(), Token: "guest-token"},
	})
	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	waitFor(t, func() bool { return reg.SubscriberCount(topic) == 1 })
	payload := []byte(`{"type":"update-basket","basketUpdates":"[{\"menuItemId\":3,\"quantity\":2}]"}`)
	if err := reg.Publish(context.Background(), topic, payload); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return c.Basket().Quantity(3) == 2 })

	if err := reg.Publish(context.Background(), topic, payload); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return c.Basket().Quantity(3) == 4 })

	time.Sleep(20 * time.Millisecond)
	if got := c.Basket().Quantity(3); got != 4 {
		t.Errorf("heartbeats changed the basket: item 3 = %d", got)
	}
}

func TestHTTPConnectorRejectsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := HTTPConnector{Client: srv.Client()}.Connect(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 403")
	}
}
