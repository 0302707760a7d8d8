package order

import (
	"math"
	"time"
)

// Order represents the orders table
type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	CustomerID  uint        `gorm:"not null;index" json:"customerId"`
	WaiterID    *uint       `gorm:"index" json:"waiterId,omitempty"`
	TableID     uint        `gorm:"not null;index" json:"tableId"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Status      Status      `gorm:"size:24;not null;index;default:PENDING" json:"status"`
	Paid        bool        `gorm:"not null;default:false" json:"paid"`
	PaymentID   *string     `gorm:"size:128" json:"paymentId,omitempty"`
	TotalPrice  float64     `gorm:"not null;default:0" json:"totalPrice"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	// IdempotencyKey is the customer-scoped checkout key; NULL for orders placed without one.
	IdempotencyKey *string `gorm:"size:128;uniqueIndex" json:"-"`
}

func (Order) TableName() string { return "orders" }

// OrderItem represents order_items. Price holds the line total.
type OrderItem struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	OrderID    uint    `gorm:"not null;index" json:"orderId"`
	MenuItemID uint    `gorm:"not null;index" json:"menuItemId"`
	Quantity   int     `gorm:"not null" json:"quantity"`
	Price      float64 `gorm:"not null" json:"price"`
	Note       string  `json:"note,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

func (OrderItem) TableName() string { return "order_items" }

// Round2 rounds a money amount to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// LineTotal prices one line of a basket.
func LineTotal(unitPrice float64, quantity int) float64 {
	return Round2(unitPrice * float64(quantity))
}

// RecomputeTotal sums the item lines into TotalPrice.
func (o *Order) RecomputeTotal() {
	var sum float64
	for _, it := range o.Items {
		sum += it.Price
	}
	o.TotalPrice = Round2(sum)
}

// ContainsMenuItem reports whether any line references menuItemID.
func (o *Order) ContainsMenuItem(menuItemID uint) bool {
	for _, it := range o.Items {
		if it.MenuItemID == menuItemID {
			return true
		}
	}
	return false
}
