package commands

import (
	"fmt"
	"strings"

	"tableside/internal/domain"
	"tableside/internal/domain/order"
	tableside_errors "tableside/pkg/errors"
)

const (
	TypeOrderTransition  = "order.transition"
	TypeOrderCheckout    = "order.checkout"
	TypeOrderUpdateItems = "order.update_items"
)

// ActorCommand is implemented by commands that carry the acting principal.
type ActorCommand interface {
	Command
	ActorPrincipal() domain.Principal
}

// TransitionOrderCommand moves an order to TargetStatus on behalf of Actor.
type TransitionOrderCommand struct {
	OrderID      uint
	TargetStatus order.Status
	Actor        domain.Principal
}

func (TransitionOrderCommand) CommandType() string { return TypeOrderTransition }

func (c TransitionOrderCommand) Validate() error {
	if c.OrderID == 0 || c.Actor.Role == "" {
		return tableside_errors.ErrInvalidInput
	}
	if _, ok := order.ParseStatus(string(c.TargetStatus)); !ok {
		return tableside_errors.ErrInvalidInput
	}
	return nil
}

func (c TransitionOrderCommand) ActorPrincipal() domain.Principal { return c.Actor }

// CheckoutCommand turns a customer's basket into a PENDING order. A retried
// checkout carrying the same idempotency key returns the first order.
type CheckoutCommand struct {
	Customer            domain.Principal
	TableID             uint
	Basket              map[uint]int
	IdempotencyKeyValue string
}

func (CheckoutCommand) CommandType() string { return TypeOrderCheckout }

func (c CheckoutCommand) Validate() error {
	if c.Customer.ID == 0 || len(c.IdempotencyKeyValue) > 64 {
		return tableside_errors.ErrInvalidInput
	}
	positive := 0
	for id, qty := range c.Basket {
		if id == 0 || qty < 0 {
			return tableside_errors.ErrInvalidInput
		}
		if qty > 0 {
			positive++
		}
	}
	if positive == 0 {
		return tableside_errors.ErrEmptyBasket
	}
	return nil
}

// IdempotencyKey scopes the client key to the customer.
func (c CheckoutCommand) IdempotencyKey() string {
	key := strings.TrimSpace(c.IdempotencyKeyValue)
	if key == "" {
		return ""
	}
	return fmt.Sprintf("checkout:%d:%s", c.Customer.ID, key)
}

func (c CheckoutCommand) ActorPrincipal() domain.Principal { return c.Customer }

// ItemLine is one requested line in an order edit.
type ItemLine struct {
	MenuItemID uint
	Quantity   int
	Note       string
	Reason     string
}

// UpdateOrderItemsCommand replaces the lines of an order.
type UpdateOrderItemsCommand struct {
	OrderID uint
	Items   []ItemLine
	Actor   domain.Principal
}

func (UpdateOrderItemsCommand) CommandType() string { return TypeOrderUpdateItems }

func (c UpdateOrderItemsCommand) Validate() error {
	if c.OrderID == 0 {
		return tableside_errors.ErrInvalidInput
	}
	for _, it := range c.Items {
		if it.MenuItemID == 0 || it.Quantity <= 0 {
			return tableside_errors.ErrInvalidInput
		}
		if len(strings.TrimSpace(it.Note)) > 500 {
			return tableside_errors.ErrInvalidInput
		}
	}
	return nil
}

func (c UpdateOrderItemsCommand) ActorPrincipal() domain.Principal { return c.Actor }
