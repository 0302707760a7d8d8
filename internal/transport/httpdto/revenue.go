package httpdto

import "tableside/internal/services"

type DayRevenueDTO struct {
	Date    string  `json:"date"`
	Revenue float64 `json:"revenue"`
}

type HourOrdersDTO struct {
	Hour   int   `json:"hour"`
	Orders int64 `json:"orders"`
}

type PopularItemDTO struct {
	MenuItemID uint    `json:"menuItemId"`
	Name       string  `json:"name"`
	Price      float64 `json:"price"`
	Count      int64   `json:"count"`
}

// RevenueDTO is the body of GET /staff/revenue.
type RevenueDTO struct {
	TotalRevenue    float64            `json:"totalRevenue"`
	TotalOrders     int64              `json:"totalOrders"`
	AvgOrderValue   float64            `json:"avgOrderValue"`
	OrderStatus     map[string]int64   `json:"orderStatus"`
	DailyRevenue    []DayRevenueDTO    `json:"dailyRevenue"`
	OrdersByHour    []HourOrdersDTO    `json:"ordersByHour"`
	PopularItems    []PopularItemDTO   `json:"popularItems"`
	CategoryRevenue map[string]float64 `json:"categoryRevenue"`
}

func NewRevenueDTO(r services.RevenueReport) RevenueDTO {
	dto := RevenueDTO{
		TotalRevenue:    r.TotalRevenue,
		TotalOrders:     r.OrderCount,
		AvgOrderValue:   r.AverageOrder,
		OrderStatus:     make(map[string]int64, len(r.StatusCounts)),
		DailyRevenue:    make([]DayRevenueDTO, 0, len(r.DailyRevenue)),
		OrdersByHour:    make([]HourOrdersDTO, 0, len(r.OrdersByHour)),
		PopularItems:    make([]PopularItemDTO, 0, len(r.PopularItems)),
		CategoryRevenue: make(map[string]float64, len(r.CategoryRevenue)),
	}
	for st, n := range r.StatusCounts {
		dto.OrderStatus[string(st)] = n
	}
	for _, d := range r.DailyRevenue {
		dto.DailyRevenue = append(dto.DailyRevenue, DayRevenueDTO{Date: d.Day, Revenue: d.Revenue})
	}
	for hour, n := range r.OrdersByHour {
		dto.OrdersByHour = append(dto.OrdersByHour, HourOrdersDTO{Hour: hour, Orders: n})
	}
	for _, p := range r.PopularItems {
		dto.PopularItems = append(dto.PopularItems, PopularItemDTO{
			MenuItemID: p.MenuItemID,
			Name:       p.Name,
			Price:      p.Price,
			Count:      p.Count,
		})
	}
	for c, v := range r.CategoryRevenue {
		dto.CategoryRevenue[string(c)] = v
	}
	return dto
}
