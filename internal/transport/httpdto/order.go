package httpdto

import (
	"time"

	"tableside/internal/domain/order"
)

// CheckoutRequest is used for POST /orders. Basket keys are menu item ids.
type CheckoutRequest struct {
	TableID uint         `json:"tableId" binding:"required"`
	Basket  map[uint]int `json:"basket" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderItemRequest struct {
	MenuItemID uint   `json:"menuItemId" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required"`
	Note       string `json:"note,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type UpdateItemsRequest struct {
	Items []OrderItemRequest `json:"items" binding:"required"`
}

type CallWaiterRequest struct {
	Name    string `json:"name" binding:"required"`
	TableID uint   `json:"tableId" binding:"required"`
}

type PayResponse struct {
	RedirectURL string `json:"redirect_url"`
}

type OrderItemDTO struct {
	ID         uint    `json:"id"`
	MenuItemID uint    `json:"menuItemId"`
	Quantity   int     `json:"quantity"`
	Price      float64 `json:"price"`
	Note       string  `json:"note,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

type OrderDTO struct {
	ID          uint           `json:"id"`
	CustomerID  uint           `json:"customerId"`
	WaiterID    *uint          `json:"waiterId,omitempty"`
	TableID     uint           `json:"tableId"`
	Status      string         `json:"status"`
	Paid        bool           `json:"paid"`
	TotalPrice  float64        `json:"totalPrice"`
	Items       []OrderItemDTO `json:"items"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

func NewOrderDTO(o order.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ID:         it.ID,
			MenuItemID: it.MenuItemID,
			Quantity:   it.Quantity,
			Price:      it.Price,
			Note:       it.Note,
			Reason:     it.Reason,
		})
	}
	return OrderDTO{
		ID:          o.ID,
		CustomerID:  o.CustomerID,
		WaiterID:    o.WaiterID,
		TableID:     o.TableID,
		Status:      string(o.Status),
		Paid:        o.Paid,
		TotalPrice:  o.TotalPrice,
		Items:       items,
		CreatedAt:   o.CreatedAt,
		CompletedAt: o.CompletedAt,
	}
}

func NewOrderDTOs(orders []order.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderDTO(o))
	}
	return out
}
