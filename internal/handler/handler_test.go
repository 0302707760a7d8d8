package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tableside/internal/commands"
	"tableside/internal/domain"
	"tableside/internal/domain/order"
	"tableside/internal/events"
	"tableside/internal/middleware"
	"tableside/internal/proxy"
	"tableside/internal/repository"
	"tableside/internal/services"
	"tableside/internal/sse"
	"tableside/internal/transport/httpdto"
	tableside_errors "tableside/pkg/errors"
	"tableside/pkg/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type tokens map[string]domain.Principal

func (t tokens) Principal(token string) (domain.Principal, error) {
	p, ok := t[token]
	if !ok {
		return domain.Principal{}, tableside_errors.ErrUnauthorized
	}
	return p, nil
}

var testTokens = tokens{
	"waiter": {ID: 11, Name: "Ana", Role: domain.RoleWaiter},
	"chef":   {ID: 12, Name: "Bo", Role: domain.RoleHeadChef},
	"guest":  {ID: 5, Name: "Cy", Role: domain.RoleCustomer},
	"other":  {ID: 6, Name: "Di", Role: domain.RoleCustomer},
}

// memOrders implements repository.OrderRepository for handler tests.
type memOrders struct {
	mu     sync.Mutex
	orders map[uint]order.Order
}

func (m *memOrders) Create(_ context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uint(len(m.orders) + 1)
	m.orders[o.ID] = *o
	return nil
}

func (m *memOrders) FindOrder(_ context.Context, id uint) (order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return order.Order{}, tableside_errors.ErrNotFound
	}
	return o, nil
}

func (m *memOrders) FindOrderByIdempotencyKey(context.Context, string) (order.Order, error) {
	return order.Order{}, tableside_errors.ErrNotFound
}

func (m *memOrders) ListOrders(_ context.Context, filter repository.OrderFilter) ([]order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []order.Order
	for _, o := range m.orders {
		if len(filter.Statuses) > 0 && o.Status != filter.Statuses[0] {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrders) UpdateOrderStatus(_ context.Context, id uint, from, to order.Status, completedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[id]
	if o.Status != from {
		return tableside_errors.ErrConflict
	}
	o.Status = to
	o.CompletedAt = completedAt
	m.orders[id] = o
	return nil
}

func (m *memOrders) ReplaceItems(context.Context, uint, []order.OrderItem, float64) error { return nil }

func (m *memOrders) MarkPaid(context.Context, uint, string) error { return nil }

func (m *memOrders) FindOpenOrdersWithMenuItem(context.Context, uint, ...order.Status) ([]order.Order, error) {
	return nil, nil
}

func (m *memOrders) RevenueAggregates(context.Context, int) (repository.RevenueAggregates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg := repository.RevenueAggregates{OrderCount: int64(len(m.orders))}
	for _, o := range m.orders {
		agg.TotalRevenue += o.TotalPrice
	}
	return agg, nil
}

type testServer struct {
	router   *gin.Engine
	registry *events.Registry
	orders   *memOrders
}

func newTestServer() testServer {
	orders := &memOrders{orders: map[uint]order.Order{
		42: {ID: 42, CustomerID: 5, TableID: 3, Status: order.StatusPending},
		50: {ID: 50, CustomerID: 5, TableID: 3, Status: order.StatusCompleted},
	}}
	registry := events.NewRegistry(logger.NewNop())
	access := proxy.NewAccessControl(orders)
	bus := commands.NewBus(access)
	orderSvc := services.NewOrderService(orders, nil, nil, registry, nil, bus, logger.NewNop())
	notifySvc := services.NewNotificationService(registry, bus, logger.NewNop())

	orderHandler := NewOrderHandler(orderSvc)
	notifyHandler := NewNotificationHandler(notifySvc)
	streams := NewStreamHandler(registry, access, sse.Options{Heartbeat: time.Hour}, logger.NewNop())
	debug := NewDebugHandler(registry)

	r := gin.New()
	v1 := r.Group("/v1", middleware.AuthMiddleware(testTokens))
	v1.GET("/orders/:id", orderHandler.Get)
	v1.GET("/orders/:id/stream", streams.Order)
	v1.POST("/orders/:id/call-waiter", notifyHandler.CallWaiter)
	v1.GET("/menu/notifications/stream", streams.MenuNotifications)

	staff := v1.Group("/staff", middleware.RequireStaff())
	staff.GET("/orders", orderHandler.List)
	staff.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
	staff.GET("/revenue", orderHandler.Revenue)
	staff.GET("/orders/stream", streams.DashboardOrders)
	staff.GET("/notifications/stream", streams.Notifications)
	staff.POST("/notifications", notifyHandler.Broadcast)
	staff.GET("/debug/topics", debug.Topics)

	return testServer{router: r, registry: registry, orders: orders}
}

func (s testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
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

type statusResponse struct {
	Code string `json:"code"`
	Data struct {
		Status string `json:"status"`
	} `json:"data"`
}

func TestUpdateStatus(t *testing.T) {
	tests := []struct {
		name        string
		orderID     string
		token       string
		body        string
		wantStatus  int
		wantErrCode string
	}{
		{"waiter confirms", "42", "waiter", `{"status":"READY_TO_COOK"}`, http.StatusOK, ""},
		{"chef cannot confirm", "42", "chef", `{"status":"ready_to_cook"}`, http.StatusForbidden, "FORBIDDEN"},
		{"terminal order", "50", "chef", `{"status":"COOKING"}`, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
		{"unknown status", "42", "waiter", `{"status":"EATEN"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown order", "99", "waiter", `{"status":"READY_TO_COOK"}`, http.StatusNotFound, "NOT_FOUND"},
		{"bad id", "abc", "waiter", `{"status":"READY_TO_COOK"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"customer", "42", "guest", `{"status":"CANCELLED"}`, http.StatusForbidden, "FORBIDDEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			w := s.do(http.MethodPatch, "/v1/staff/orders/"+tt.orderID+"/status", tt.token, tt.body)
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tt.wantStatus, w.Body.String())
			}
			var res statusResponse
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if res.Code != tt.wantErrCode {
				t.Fatalf("code = %q, want %q", res.Code, tt.wantErrCode)
			}
			if tt.wantStatus == http.StatusOK && res.Data.Status != "READY_TO_COOK" {
				t.Fatalf("data.status = %q", res.Data.Status)
			}
		})
	}
}

func TestGetOrderOwnership(t *testing.T) {
	s := newTestServer()
	if w := s.do(http.MethodGet, "/v1/orders/42", "guest", ""); w.Code != http.StatusOK {
		t.Fatalf("owner status = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/v1/orders/42", "other", ""); w.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d", w.Code)
	}
	if w := s.do(http.MethodGet, "/v1/orders/42", "", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", w.Code)
	}
}

func TestListOrdersRejectsBadStatus(t *testing.T) {
	s := newTestServer()
	if w := s.do(http.MethodGet, "/v1/staff/orders?status=PENDING,NOPE", "waiter", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	w := s.do(http.MethodGet, "/v1/staff/orders?status=pending", "waiter", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"id":42`) {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestRevenueReport(t *testing.T) {
	s := newTestServer()
	if w := s.do(http.MethodGet, "/v1/staff/revenue", "guest", ""); w.Code != http.StatusForbidden {
		t.Fatalf("customer status = %d", w.Code)
	}

	w := s.do(http.MethodGet, "/v1/staff/revenue", "chef", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	var res struct {
		Data httpdto.RevenueDTO `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if res.Data.TotalOrders != 2 || len(res.Data.OrdersByHour) != 24 {
		t.Fatalf("unexpected report %+v", res.Data)
	}
	if n, ok := res.Data.OrderStatus["CANCELLED"]; !ok || n != 0 {
		t.Fatalf("orderStatus = %v", res.Data.OrderStatus)
	}
}

func TestBroadcastRequiresRoleAndMessage(t *testing.T) {
	s := newTestServer()
	if w := s.do(http.MethodPost, "/v1/staff/notifications", "waiter", `{"role":"kitchen"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	if w := s.do(http.MethodPost, "/v1/staff/notifications", "waiter", `{"role":"kitchen","message":"86 the soup"}`); w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestCallWaiterByOwner(t *testing.T) {
	s := newTestServer()
	var got []string
	s.registry.Subscribe(events.WaiterTopic, func(_ context.Context, payload []byte) {
		got = append(got, string(payload))
	})

	w := s.do(http.MethodPost, "/v1/orders/42/call-waiter", "guest", `{"name":"Cy","tableId":3}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
	if len(got) != 1 || !strings.Contains(got[0], "needs assistance with order 42") {
		t.Fatalf("waiter payloads = %q", got)
	}
	if w := s.do(http.MethodPost, "/v1/orders/42/call-waiter", "other", `{"name":"Di","tableId":3}`); w.Code != http.StatusForbidden {
		t.Fatalf("stranger status = %d", w.Code)
	}
}

func TestStreamAccessRules(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"customer on dashboard", "/v1/staff/orders/stream", "guest", http.StatusForbidden},
		{"missing role", "/v1/staff/notifications/stream", "waiter", http.StatusBadRequest},
		{"someone else's order", "/v1/orders/42/stream", "other", http.StatusForbidden},
		{"missing user", "/v1/menu/notifications/stream", "guest", http.StatusBadRequest},
		{"other customer's menu channel", "/v1/menu/notifications/stream?user=6", "guest", http.StatusForbidden},
		{"anonymous", "/v1/orders/42/stream", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			if w := s.do(http.MethodGet, tt.path, tt.token, ""); w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestOrderStreamEndToEnd(t *testing.T) {
	s := newTestServer()
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/orders/42/stream", nil)
	req.Header.Set("Authorization", "Bearer guest")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Fatalf("status %d content type %q", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	topic := events.OrderTopic(42)
	waitFor(t, func() bool { return s.registry.SubscriberCount(topic) == 1 })

	// A waiter confirming the order reaches the guest's stream.
	if w := s.do(http.MethodPatch, "/v1/staff/orders/42/status", "waiter", `{"status":"READY_TO_COOK"}`); w.Code != http.StatusOK {
		t.Fatalf("transition status = %d", w.Code)
	}

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.HasPrefix(line, `data: {"type":"update-order"`) {
		t.Fatalf("frame line = %q", line)
	}
	if blank, _ := reader.ReadString('\n'); blank != "\n" {
		t.Fatalf("frame not terminated: %q", blank)
	}

	cancel()
	waitFor(t, func() bool { return s.registry.SubscriberCount(topic) == 0 })
}

func TestDebugTopics(t *testing.T) {
	s := newTestServer()
	sub := s.registry.Subscribe(events.KitchenTopic, func(context.Context, []byte) {})
	defer sub.Unsubscribe()

	w := s.do(http.MethodGet, "/v1/staff/debug/topics", "chef", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `{"topic":"notifications:kitchen","subscribers":1}`) {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}
