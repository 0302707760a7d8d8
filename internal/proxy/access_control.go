package proxy

import (
	"context"
	"strconv"
	"strings"

	"tableside/internal/commands"
	"tableside/internal/domain"
	"tableside/internal/domain/order"
	"tableside/internal/events"
	tableside_errors "tableside/pkg/errors"
)

// OrderLookup is the slice of the order repository access checks need.
type OrderLookup interface {
	FindOrder(ctx context.Context, id uint) (order.Order, error)
}

// AccessControl decides who may run a command and who may listen on a topic.
type AccessControl struct {
	orders OrderLookup
}

func NewAccessControl(orders OrderLookup) *AccessControl {
	return &AccessControl{orders: orders}
}

// Authorize implements commands.Proxy.
func (a *AccessControl) Authorize(ctx context.Context, cmd commands.Command) error {
	switch c := cmd.(type) {
	case commands.TransitionOrderCommand:
		return a.CanTransition(c.Actor, c.TargetStatus)
	case commands.CheckoutCommand:
		if !c.Customer.IsCustomer() {
			return tableside_errors.ErrForbidden
		}
		return nil
	case commands.UpdateOrderItemsCommand:
		return requireStaff(c.Actor)
	case commands.StaffBroadcastCommand:
		return requireStaff(c.Sender)
	case commands.BasketSuggestionCommand:
		return requireStaff(c.Sender)
	case commands.CallWaiterCommand:
		if c.Customer.IsStaff() {
			return nil
		}
		return a.ensureOrderOwner(ctx, c.Customer, c.OrderID)
	}
	if ac, ok := cmd.(commands.ActorCommand); ok {
		return requireStaff(ac.ActorPrincipal())
	}
	return tableside_errors.ErrForbidden
}

// CanTransition checks the actor's role against the action that enters target.
func (a *AccessControl) CanTransition(actor domain.Principal, target order.Status) error {
	if !order.RoleMayEnter(actor.Role, target) {
		return tableside_errors.ErrForbidden
	}
	return nil
}

// CanSubscribe checks whether p may listen on topic.
func (a *AccessControl) CanSubscribe(ctx context.Context, p domain.Principal, topic string) error {
	switch {
	case topic == events.DashboardOrders:
		return requireStaff(p)

	case strings.HasPrefix(topic, "notifications:"):
		// Staff may follow any role channel, including the kitchen group.
		return requireStaff(p)

	case strings.HasPrefix(topic, "orders:customer:"):
		id, err := parseID(strings.TrimPrefix(topic, "orders:customer:"))
		if err != nil {
			return err
		}
		if p.IsStaff() {
			return nil
		}
		return a.ensureOrderOwner(ctx, p, id)

	case strings.HasPrefix(topic, "menu:notifications:"):
		id, err := parseID(strings.TrimPrefix(topic, "menu:notifications:"))
		if err != nil {
			return err
		}
		if p.IsStaff() || (p.IsCustomer() && p.ID == id) {
			return nil
		}
		return tableside_errors.ErrForbidden
	}
	return tableside_errors.ErrForbidden
}

func (a *AccessControl) ensureOrderOwner(ctx context.Context, p domain.Principal, orderID uint) error {
	if !p.IsCustomer() || a.orders == nil {
		return tableside_errors.ErrForbidden
	}
	o, err := a.orders.FindOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if o.CustomerID != p.ID {
		return tableside_errors.ErrForbidden
	}
	return nil
}

func requireStaff(p domain.Principal) error {
	if !p.IsStaff() {
		return tableside_errors.ErrForbidden
	}
	return nil
}

func parseID(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return 0, tableside_errors.ErrInvalidInput
	}
	return uint(n), nil
}
