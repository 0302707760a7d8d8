package repository

import (
	"context"

	"tableside/internal/domain/menu"
	"tableside/internal/domain/order"
)

// RevenueAggregates holds the raw sums and counts behind the staff revenue report.
type RevenueAggregates struct {
	TotalRevenue    float64
	OrderCount      int64
	StatusCounts    []StatusCount
	DailyRevenue    []DailyRevenue
	HourlyOrders    []HourlyCount
	PopularItems    []PopularItem
	CategoryRevenue []CategoryRevenue
}

type StatusCount struct {
	Status order.Status
	Count  int64
}

// DailyRevenue is keyed by calendar day, formatted YYYY-MM-DD.
type DailyRevenue struct {
	Day     string
	Revenue float64
}

type HourlyCount struct {
	Hour  int
	Count int64
}

// PopularItem counts the order lines referencing a menu item.
type PopularItem struct {
	MenuItemID uint
	Name       string
	Price      float64
	Count      int64
}

type CategoryRevenue struct {
	Category menu.Category
	Revenue  float64
}

// RevenueAggregates runs the grouped queries for the revenue report.
// popularLimit caps PopularItems.
func (r *PostgresOrderRepository) RevenueAggregates(ctx context.Context, popularLimit int) (RevenueAggregates, error) {
	db := r.db.WithContext(ctx)
	var agg RevenueAggregates

	var totals struct {
		Revenue float64
		Orders  int64
	}
	if err := db.Model(&order.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS revenue, COUNT(*) AS orders").
		Scan(&totals).Error; err != nil {
		return RevenueAggregates{}, mapError(err)
	}
	agg.TotalRevenue = totals.Revenue
	agg.OrderCount = totals.Orders

	if err := db.Model(&order.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&agg.StatusCounts).Error; err != nil {
		return RevenueAggregates{}, mapError(err)
	}

	if err := db.Model(&order.Order{}).
		Select("TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COALESCE(SUM(total_price), 0) AS revenue").
		Group("day").
		Order("day ASC").
		Scan(&agg.DailyRevenue).Error; err != nil {
		return RevenueAggregates{}, mapError(err)
	}

	if err := db.Model(&order.Order{}).
		Select("CAST(EXTRACT(HOUR FROM created_at) AS INTEGER) AS hour, COUNT(*) AS count").
		Group("hour").
		Scan(&agg.HourlyOrders).Error; err != nil {
		return RevenueAggregates{}, mapError(err)
	}

	if popularLimit > 0 {
		if err := db.Table("order_items").
			Select("order_items.menu_item_id, menu_items.name, menu_items.price, COUNT(order_items.id) AS count").
			Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
			Group("order_items.menu_item_id, menu_items.name, menu_items.price").
			Order("count DESC, order_items.menu_item_id ASC").
			Limit(popularLimit).
			Scan(&agg.PopularItems).Error; err != nil {
			return RevenueAggregates{}, mapError(err)
		}
	}

	if err := db.Table("order_items").
		Select("menu_items.category, COALESCE(SUM(order_items.price), 0) AS revenue").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Group("menu_items.category").
		Scan(&agg.CategoryRevenue).Error; err != nil {
		return RevenueAggregates{}, mapError(err)
	}

	return agg, nil
}
