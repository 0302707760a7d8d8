package services

import (
	"context"

	"tableside/internal/domain/menu"
	"tableside/internal/domain/order"
)

const popularItemLimit = 5

// RevenueReport backs the staff revenue dashboard. Money values are rounded to two decimals.
type RevenueReport struct {
	TotalRevenue    float64
	OrderCount      int64
	AverageOrder    float64
	StatusCounts    map[order.Status]int64
	DailyRevenue    []DayRevenue
	OrdersByHour    [24]int64
	PopularItems    []PopularItem
	CategoryRevenue map[menu.Category]float64
}

type DayRevenue struct {
	Day     string
	Revenue float64
}

type PopularItem struct {
	MenuItemID uint
	Name       string
	Price      float64
	Count      int64
}

// RevenueReport summarises all orders for the staff dashboard.
func (s *OrderService) RevenueReport(ctx context.Context) (RevenueReport, error) {
	agg, err := s.orders.RevenueAggregates(ctx, popularItemLimit)
	if err != nil {
		return RevenueReport{}, err
	}

	report := RevenueReport{
		TotalRevenue:    order.Round2(agg.TotalRevenue),
		OrderCount:      agg.OrderCount,
		StatusCounts:    make(map[order.Status]int64, len(order.Statuses)),
		CategoryRevenue: make(map[menu.Category]float64, len(menu.Categories)),
	}
	if agg.OrderCount > 0 {
		report.AverageOrder = order.Round2(agg.TotalRevenue / float64(agg.OrderCount))
	}

	for _, st := range order.Statuses {
		report.StatusCounts[st] = 0
	}
	for _, sc := range agg.StatusCounts {
		report.StatusCounts[sc.Status] += sc.Count
	}

	for _, d := range agg.DailyRevenue {
		report.DailyRevenue = append(report.DailyRevenue, DayRevenue{Day: d.Day, Revenue: order.Round2(d.Revenue)})
	}

	for _, h := range agg.HourlyOrders {
		if h.Hour >= 0 && h.Hour < len(report.OrdersByHour) {
			report.OrdersByHour[h.Hour] += h.Count
		}
	}

	for _, p := range agg.PopularItems {
		report.PopularItems = append(report.PopularItems, PopularItem{
			MenuItemID: p.MenuItemID,
			Name:       p.Name,
			Price:      p.Price,
			Count:      p.Count,
		})
	}

	for _, c := range menu.Categories {
		report.CategoryRevenue[c] = 0
	}
	for _, c := range agg.CategoryRevenue {
		report.CategoryRevenue[c.Category] = order.Round2(report.CategoryRevenue[c.Category] + c.Revenue)
	}

	return report, nil
}
