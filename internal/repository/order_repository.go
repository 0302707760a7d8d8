package repository

import (
	"context"
	"time"

	"tableside/internal/domain/order"
	tableside_errors "tableside/pkg/errors"

	"gorm.io/gorm"
)

type PostgresOrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &PostgresOrderRepository{db: db}
}

// Create inserts the order and its items in one transaction.
func (r *PostgresOrderRepository) Create(ctx context.Context, o *order.Order) error {
	return mapError(r.db.WithContext(ctx).Create(o).Error)
}

func (r *PostgresOrderRepository) FindOrder(ctx context.Context, id uint) (order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&o, id).Error
	if err != nil {
		return order.Order{}, mapError(err)
	}
	return o, nil
}

// FindOrderByIdempotencyKey returns the order placed with key.
func (r *PostgresOrderRepository) FindOrderByIdempotencyKey(ctx context.Context, key string) (order.Order, error) {
	var o order.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("idempotency_key = ?", key).
		First(&o).Error
	if err != nil {
		return order.Order{}, mapError(err)
	}
	return o, nil
}

func (r *PostgresOrderRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]order.Order, error) {
	q := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })

	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	if filter.CustomerID != 0 {
		q = q.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.TableID != 0 {
		q = q.Where("table_id = ?", filter.TableID)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var orders []order.Order
	if err := q.Order("created_at ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresOrderRepository) UpdateOrderStatus(ctx context.Context, id uint, from, to order.Status, completedAt *time.Time) error {
	updates := map[string]interface{}{"status": to}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return tableside_errors.ErrConflict
	}
	return nil
}

func (r *PostgresOrderRepository) ReplaceItems(ctx context.Context, id uint, items []order.OrderItem, total float64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&order.Order{}).Where("id = ?", id).Update("total_price", total)
		if res.Error != nil {
			return mapError(res.Error)
		}
		if res.RowsAffected == 0 {
			return tableside_errors.ErrNotFound
		}
		if err := tx.Where("order_id = ?", id).Delete(&order.OrderItem{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		for i := range items {
			items[i].ID = 0
			items[i].OrderID = id
		}
		return mapError(tx.Create(&items).Error)
	})
}

// MarkPaid is a no-op for an order that is already paid.
func (r *PostgresOrderRepository) MarkPaid(ctx context.Context, id uint, paymentID string) error {
	res := r.db.WithContext(ctx).
		Model(&order.Order{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]interface{}{"paid": true, "payment_id": paymentID})
	return mapError(res.Error)
}

func (r *PostgresOrderRepository) FindOpenOrdersWithMenuItem(ctx context.Context, menuItemID uint, statuses ...order.Status) ([]order.Order, error) {
	if len(statuses) == 0 {
		statuses = []order.Status{order.StatusPending}
	}
	db := r.db.WithContext(ctx)
	var orders []order.Order
	err := db.
		Preload("Items").
		Where("status IN ?", statuses).
		Where("id IN (?)", db.Model(&order.OrderItem{}).Select("order_id").Where("menu_item_id = ?", menuItemID)).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
