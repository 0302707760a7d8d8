package proxy

import (
	"context"
	"errors"
	"testing"

	"tableside/internal/commands"
	"tableside/internal/domain"
	"tableside/internal/domain/order"
	"tableside/internal/events"
	tableside_errors "tableside/pkg/errors"
)

type stubOrders map[uint]order.Order

func (s stubOrders) FindOrder(_ context.Context, id uint) (order.Order, error) {
	o, ok := s[id]
	if !ok {
		return order.Order{}, tableside_errors.ErrNotFound
	}
	return o, nil
}

var (
	waiter   = domain.Principal{ID: 1, Role: domain.RoleWaiter}
	chef     = domain.Principal{ID: 2, Role: domain.RoleHeadChef}
	admin    = domain.Principal{ID: 3, Role: domain.RoleAdmin}
	customer = domain.Principal{ID: 10, Role: domain.RoleCustomer}
	stranger = domain.Principal{ID: 11, Role: domain.RoleCustomer}
)

func TestCanSubscribe(t *testing.T) {
	ac := NewAccessControl(stubOrders{42: {ID: 42, CustomerID: 10}})
	tests := []struct {
		name  string
		p     domain.Principal
		topic string
		want  error
	}{
		{"staff dashboard", chef, events.DashboardOrders, nil},
		{"customer dashboard", customer, events.DashboardOrders, tableside_errors.ErrForbidden},
		{"own role topic", waiter, events.RoleTopic("waiter"), nil},
		{"other role topic", chef, events.RoleTopic("waiter"), nil},
		{"kitchen group", chef, events.KitchenTopic, nil},
		{"customer role topic", customer, events.RoleTopic("waiter"), tableside_errors.ErrForbidden},
		{"admin any role", admin, events.RoleTopic("porter"), nil},
		{"own order", customer, events.OrderTopic(42), nil},
		{"someone else's order", stranger, events.OrderTopic(42), tableside_errors.ErrForbidden},
		{"missing order", customer, events.OrderTopic(99), tableside_errors.ErrNotFound},
		{"staff any order", waiter, events.OrderTopic(99), nil},
		{"own menu topic", customer, events.MenuNotificationsTopic(10), nil},
		{"other menu topic", customer, events.MenuNotificationsTopic(11), tableside_errors.ErrForbidden},
		{"bad id", customer, "menu:notifications:abc", tableside_errors.ErrInvalidInput},
		{"unknown topic", admin, "secret:stuff", tableside_errors.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ac.CanSubscribe(context.Background(), tt.p, tt.topic)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAuthorizeCommands(t *testing.T) {
	ac := NewAccessControl(stubOrders{42: {ID: 42, CustomerID: 10}})
	tests := []struct {
		name string
		cmd  commands.Command
		want error
	}{
		{"waiter confirms", commands.TransitionOrderCommand{OrderID: 42, TargetStatus: order.StatusReadyToCook, Actor: waiter}, nil},
		{"chef cannot confirm", commands.TransitionOrderCommand{OrderID: 42, TargetStatus: order.StatusReadyToCook, Actor: chef}, tableside_errors.ErrForbidden},
		{"customer cannot cancel", commands.TransitionOrderCommand{OrderID: 42, TargetStatus: order.StatusCancelled, Actor: customer}, tableside_errors.ErrForbidden},
		{"customer checks out", commands.CheckoutCommand{Customer: customer, TableID: 1, Basket: map[uint]int{1: 1}}, nil},
		{"staff cannot check out", commands.CheckoutCommand{Customer: waiter, TableID: 1, Basket: map[uint]int{1: 1}}, tableside_errors.ErrForbidden},
		{"customer cannot broadcast", commands.StaffBroadcastCommand{Sender: customer, Role: "waiter", Message: "x"}, tableside_errors.ErrForbidden},
		{"owner calls waiter", commands.CallWaiterCommand{Customer: customer, OrderID: 42, TableID: 1, Name: "Ann"}, nil},
		{"stranger calls waiter", commands.CallWaiterCommand{Customer: stranger, OrderID: 42, TableID: 1, Name: "Bob"}, tableside_errors.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ac.Authorize(context.Background(), tt.cmd); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
