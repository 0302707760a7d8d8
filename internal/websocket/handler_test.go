package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tableside/internal/domain"
	"tableside/internal/events"
	"tableside/internal/middleware"
	tableside_errors "tableside/pkg/errors"
	"tableside/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type staffOnly struct{}

func (staffOnly) CanSubscribe(_ context.Context, p domain.Principal, _ string) error {
	if !p.IsStaff() {
		return tableside_errors.ErrForbidden
	}
	return nil
}

type tokens map[string]domain.Principal

func (t tokens) Principal(token string) (domain.Principal, error) {
	p, ok := t[token]
	if !ok {
		return domain.Principal{}, tableside_errors.ErrUnauthorized
	}
	return p, nil
}

func newServer(reg *events.Registry) *httptest.Server {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := middleware.AuthMiddleware(tokens{
		"staff": {ID: 1, Role: domain.RoleWaiter},
		"guest": {ID: 5, Role: domain.RoleCustomer},
	})
	h := NewHandler(reg, staffOnly{}, Options{PingInterval: time.Second}, logger.NewNop())
	r.GET("/v1/ws", auth, h.Connect)
	return httptest.NewServer(r)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWebSocketMirrorsTopic(t *testing.T) {
	reg := events.NewRegistry(logger.NewNop())
	srv := newServer(reg)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws?topic=dashboard:orders&access_token=staff"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}

	waitFor(t, func() bool { return reg.SubscriberCount(events.DashboardOrders) == 1 })
	if err := reg.Publish(context.Background(), events.DashboardOrders, []byte(`{"type":"update-order"}`)); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if kind != websocket.TextMessage || string(msg) != `{"type":"update-order"}` {
		t.Fatalf("got %d %q", kind, msg)
	}

	_ = conn.Close()
	waitFor(t, func() bool { return reg.SubscriberCount(events.DashboardOrders) == 0 })
}

func TestSendMessageStampsEmptyPayload(t *testing.T) {
	c := NewClient(nil, domain.Principal{ID: 1, Role: domain.RoleWaiter}, events.DashboardOrders, 2)
	c.now = func() time.Time { return time.UnixMilli(1760000000123) }

	c.SendMessage(nil)
	c.SendMessage([]byte("x"))

	if got := string(<-c.Send); got != "1760000000123" {
		t.Fatalf("empty payload sent as %q", got)
	}
	if got := string(<-c.Send); got != "x" {
		t.Fatalf("payload sent as %q", got)
	}
}

func TestWebSocketRejectsBeforeUpgrade(t *testing.T) {
	reg := events.NewRegistry(logger.NewNop())
	srv := newServer(reg)
	defer srv.Close()

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"no token", "?topic=dashboard:orders", http.StatusUnauthorized},
		{"no topic", "?access_token=staff", http.StatusBadRequest},
		{"forbidden", "?topic=dashboard:orders&access_token=guest", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws" + tt.query
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				t.Fatal("expected handshake failure")
			}
			if resp == nil || resp.StatusCode != tt.want {
				t.Fatalf("response = %v, want status %d", resp, tt.want)
			}
		})
	}
	if n := reg.SubscriberCount(events.DashboardOrders); n != 0 {
		t.Fatalf("rejected connections left %d subscribers", n)
	}
}
