package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"tableside/internal/domain"
	"tableside/internal/domain/dining"
	"tableside/internal/domain/menu"
	"tableside/internal/domain/order"
	"tableside/internal/domain/staff"
	"tableside/internal/events"
	"tableside/internal/payment"
	"tableside/internal/repository"
	tableside_errors "tableside/pkg/errors"
)

var errStoreDown = errors.New("store down")

type fakeOrders struct {
	mu           sync.Mutex
	orders       map[uint]order.Order
	nextID       uint
	failWrite    bool
	revenue      repository.RevenueAggregates
	popularLimit int
}

func newFakeOrders(seed ...order.Order) *fakeOrders {
	f := &fakeOrders{orders: map[uint]order.Order{}, nextID: 100}
	for _, o := range seed {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) Create(_ context.Context, o *order.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errStoreDown
	}
	if o.IdempotencyKey != nil {
		for _, existing := range f.orders {
			if existing.IdempotencyKey != nil && *existing.IdempotencyKey == *o.IdempotencyKey {
				return tableside_errors.ErrAlreadyExists
			}
		}
	}
	f.nextID++
	o.ID = f.nextID
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrders) FindOrder(_ context.Context, id uint) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return order.Order{}, tableside_errors.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrders) FindOrderByIdempotencyKey(_ context.Context, key string) (order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.IdempotencyKey != nil && *o.IdempotencyKey == key {
			return o, nil
		}
	}
	return order.Order{}, tableside_errors.ErrNotFound
}

func (f *fakeOrders) RevenueAggregates(_ context.Context, popularLimit int) (repository.RevenueAggregates, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return repository.RevenueAggregates{}, errStoreDown
	}
	f.popularLimit = popularLimit
	return f.revenue, nil
}

func (f *fakeOrders) ListOrders(_ context.Context, filter repository.OrderFilter) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		if filter.CustomerID != 0 && o.CustomerID != filter.CustomerID {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func (f *fakeOrders) UpdateOrderStatus(_ context.Context, id uint, from, to order.Status, completedAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errStoreDown
	}
	o, ok := f.orders[id]
	if !ok {
		return tableside_errors.ErrNotFound
	}
	if o.Status != from {
		return tableside_errors.ErrConflict
	}
	o.Status = to
	o.CompletedAt = completedAt
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) ReplaceItems(_ context.Context, id uint, items []order.OrderItem, total float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errStoreDown
	}
	o := f.orders[id]
	o.Items = items
	o.TotalPrice = total
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) MarkPaid(_ context.Context, id uint, paymentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := f.orders[id]
	o.Paid = true
	o.PaymentID = &paymentID
	f.orders[id] = o
	return nil
}

func (f *fakeOrders) FindOpenOrdersWithMenuItem(_ context.Context, menuItemID uint, statuses ...order.Status) ([]order.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Order
	for _, o := range f.orders {
		if !o.ContainsMenuItem(menuItemID) {
			continue
		}
		for _, s := range statuses {
			if o.Status == s {
				out = append(out, o)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeOrders) get(id uint) order.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

type fakeMenu struct {
	items map[uint]menu.MenuItem
	reads int
}

func newFakeMenu(items ...menu.MenuItem) *fakeMenu {
	f := &fakeMenu{items: map[uint]menu.MenuItem{}}
	for _, it := range items {
		f.items[it.ID] = it
	}
	return f
}

func (f *fakeMenu) FindMenuItems(context.Context) ([]menu.MenuItem, error) {
	f.reads++
	out := make([]menu.MenuItem, 0, len(f.items))
	for _, it := range f.items {
		out = append(out, it)
	}
	return out, nil
}

func (f *fakeMenu) FindMenuItemsByIDs(_ context.Context, ids []uint) ([]menu.MenuItem, error) {
	var out []menu.MenuItem
	for _, id := range ids {
		if it, ok := f.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeMenu) FindMenuItem(_ context.Context, id uint) (menu.MenuItem, error) {
	it, ok := f.items[id]
	if !ok {
		return menu.MenuItem{}, tableside_errors.ErrNotFound
	}
	return it, nil
}

func (f *fakeMenu) UpdateMenuItem(_ context.Context, item menu.MenuItem) error {
	f.items[item.ID] = item
	return nil
}

func (f *fakeMenu) UpdateStock(_ context.Context, id uint, stock int) error {
	it, ok := f.items[id]
	if !ok {
		return tableside_errors.ErrNotFound
	}
	it.Stock = stock
	f.items[id] = it
	return nil
}

func (f *fakeMenu) UpdateImage(_ context.Context, id uint, url string) error {
	it, ok := f.items[id]
	if !ok {
		return tableside_errors.ErrNotFound
	}
	it.Image = url
	f.items[id] = it
	return nil
}

type fakeTables struct {
	tables map[uint]dining.Table
}

func (f fakeTables) FindTables(context.Context) ([]dining.Table, error) {
	out := make([]dining.Table, 0, len(f.tables))
	for _, t := range f.tables {
		out = append(out, t)
	}
	return out, nil
}

func (f fakeTables) FindTable(_ context.Context, id uint) (dining.Table, error) {
	t, ok := f.tables[id]
	if !ok {
		return dining.Table{}, tableside_errors.ErrNotFound
	}
	return t, nil
}

type fakeCustomers struct {
	nextID    uint
	customers map[uint]dining.Customer
}

func (f *fakeCustomers) Create(_ context.Context, c *dining.Customer) error {
	f.nextID++
	c.ID = f.nextID
	if f.customers == nil {
		f.customers = map[uint]dining.Customer{}
	}
	f.customers[c.ID] = *c
	return nil
}

func (f *fakeCustomers) FindCustomer(_ context.Context, id uint) (dining.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return dining.Customer{}, tableside_errors.ErrNotFound
	}
	return c, nil
}

type fakeStaff struct {
	byName map[string]staff.Staff
}

func (f fakeStaff) FindByUsername(_ context.Context, username string) (staff.Staff, error) {
	s, ok := f.byName[username]
	if !ok {
		return staff.Staff{}, tableside_errors.ErrNotFound
	}
	return s, nil
}

func (f fakeStaff) FindStaff(_ context.Context, id uint) (staff.Staff, error) {
	for _, s := range f.byName {
		if s.ID == id {
			return s, nil
		}
	}
	return staff.Staff{}, tableside_errors.ErrNotFound
}

func (f fakeStaff) ListByRole(_ context.Context, role domain.Role) ([]staff.Staff, error) {
	var out []staff.Staff
	for _, s := range f.byName {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeGateway struct {
	lastItems []payment.LineItem
	intentID  string
	retrieved int
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, orderID uint, items []payment.LineItem) (string, error) {
	g.lastItems = items
	return "https://checkout.test/session", nil
}

func (g *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (string, error) {
	g.retrieved++
	if sessionID == "unpaid" {
		return "", tableside_errors.ErrPaymentFailed
	}
	return g.intentID, nil
}

// recorder captures every payload published on the given topics.
type recorder struct {
	mu  sync.Mutex
	got map[string][]string
}

func record(bus events.Bus, topics ...string) *recorder {
	r := &recorder{got: map[string][]string{}}
	for _, topic := range topics {
		topic := topic
		bus.Subscribe(topic, func(_ context.Context, payload []byte) {
			r.mu.Lock()
			r.got[topic] = append(r.got[topic], string(payload))
			r.mu.Unlock()
		})
	}
	return r
}

func (r *recorder) on(topic string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.got[topic]...)
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.got {
		n += len(v)
	}
	return n
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint) *uint { return &v }
