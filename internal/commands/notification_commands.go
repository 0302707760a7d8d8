package commands

import (
	"strings"

	"tableside/internal/domain"
	tableside_errors "tableside/pkg/errors"
)

const (
	TypeStaffBroadcast   = "notification.broadcast"
	TypeBasketSuggestion = "notification.basket_suggestion"
	TypeCallWaiter       = "notification.call_waiter"
)

// StaffBroadcastCommand sends a warning toast to every member of a role.
type StaffBroadcastCommand struct {
	Sender    domain.Principal
	Role      string
	Message   string
	Receivers []string
}

func (StaffBroadcastCommand) CommandType() string { return TypeStaffBroadcast }

func (c StaffBroadcastCommand) Validate() error {
	if strings.TrimSpace(c.Role) == "" || strings.TrimSpace(c.Message) == "" {
		return tableside_errors.ErrInvalidInput
	}
	return nil
}

func (c StaffBroadcastCommand) ActorPrincipal() domain.Principal { return c.Sender }

// BasketSuggestionCommand pushes quantities into a customer's local basket.
type BasketSuggestionCommand struct {
	Sender     domain.Principal
	CustomerID uint
	Items      map[uint]int
}

func (BasketSuggestionCommand) CommandType() string { return TypeBasketSuggestion }

func (c BasketSuggestionCommand) Validate() error {
	if c.CustomerID == 0 {
		return tableside_errors.ErrInvalidInput
	}
	return nil
}

func (c BasketSuggestionCommand) ActorPrincipal() domain.Principal { return c.Sender }

// CallWaiterCommand alerts waiters that a table needs help with an order.
type CallWaiterCommand struct {
	Customer domain.Principal
	OrderID  uint
	Name     string
	TableID  uint
}

func (CallWaiterCommand) CommandType() string { return TypeCallWaiter }

func (c CallWaiterCommand) Validate() error {
	if c.OrderID == 0 || c.TableID == 0 || strings.TrimSpace(c.Name) == "" {
		return tableside_errors.ErrInvalidInput
	}
	return nil
}

func (c CallWaiterCommand) ActorPrincipal() domain.Principal { return c.Customer }
