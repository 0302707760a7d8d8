package repository

import (
	"context"
	"time"

	"tableside/internal/domain"
	"tableside/internal/domain/dining"
	"tableside/internal/domain/menu"
	"tableside/internal/domain/order"
	"tableside/internal/domain/staff"
)

// OrderFilter narrows ListOrders. Zero values mean no constraint.
type OrderFilter struct {
	Statuses   []order.Status
	CustomerID uint
	TableID    uint
	Limit      int
}

type OrderRepository interface {
	Create(ctx context.Context, o *order.Order) error
	FindOrder(ctx context.Context, id uint) (order.Order, error)
	// FindOrderByIdempotencyKey fails with ErrNotFound when no order carries key.
	FindOrderByIdempotencyKey(ctx context.Context, key string) (order.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]order.Order, error)
	// UpdateOrderStatus moves id from one status to another. It fails with
	// ErrConflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id uint, from, to order.Status, completedAt *time.Time) error
	ReplaceItems(ctx context.Context, id uint, items []order.OrderItem, total float64) error
	MarkPaid(ctx context.Context, id uint, paymentID string) error
	FindOpenOrdersWithMenuItem(ctx context.Context, menuItemID uint, statuses ...order.Status) ([]order.Order, error)
	RevenueAggregates(ctx context.Context, popularLimit int) (RevenueAggregates, error)
}

type MenuRepository interface {
	FindMenuItems(ctx context.Context) ([]menu.MenuItem, error)
	FindMenuItemsByIDs(ctx context.Context, ids []uint) ([]menu.MenuItem, error)
	FindMenuItem(ctx context.Context, id uint) (menu.MenuItem, error)
	UpdateMenuItem(ctx context.Context, item menu.MenuItem) error
	UpdateStock(ctx context.Context, id uint, stock int) error
	UpdateImage(ctx context.Context, id uint, url string) error
}

type TableRepository interface {
	FindTables(ctx context.Context) ([]dining.Table, error)
	FindTable(ctx context.Context, id uint) (dining.Table, error)
}

type CustomerRepository interface {
	Create(ctx context.Context, c *dining.Customer) error
	FindCustomer(ctx context.Context, id uint) (dining.Customer, error)
}

type StaffRepository interface {
	FindByUsername(ctx context.Context, username string) (staff.Staff, error)
	FindStaff(ctx context.Context, id uint) (staff.Staff, error)
	ListByRole(ctx context.Context, role domain.Role) ([]staff.Staff, error)
}
