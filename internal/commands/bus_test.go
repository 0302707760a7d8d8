package commands

import (
	"context"
	"errors"
	"testing"

	"tableside/internal/domain"
	"tableside/internal/domain/order"
	tableside_errors "tableside/pkg/errors"
	"tableside/pkg/logger"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type denyAll struct{ calls int }

func (d *denyAll) Authorize(context.Context, Command) error {
	d.calls++
	return tableside_errors.ErrForbidden
}

func TestExecuteValidatesBeforeAuthorizing(t *testing.T) {
	deny := &denyAll{}
	bus := NewBus(deny)
	bus.Register(TypeOrderTransition, HandlerFunc(func(context.Context, Command) (Result, error) {
		t.Fatal("handler must not run")
		return Result{}, nil
	}))

	_, err := bus.Execute(context.Background(), TransitionOrderCommand{})
	if !errors.Is(err, tableside_errors.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if deny.calls != 0 {
		t.Fatal("proxy ran for an invalid command")
	}
}

func TestExecuteStopsAtProxy(t *testing.T) {
	bus := NewBus()
	bus.Use(&denyAll{})
	ran := false
	bus.Register(TypeOrderTransition, HandlerFunc(func(context.Context, Command) (Result, error) {
		ran = true
		return Result{}, nil
	}))

	cmd := TransitionOrderCommand{OrderID: 1, TargetStatus: order.StatusCooking, Actor: domain.Principal{ID: 1, Role: domain.RoleWaiter}}
	if _, err := bus.Execute(context.Background(), cmd); !errors.Is(err, tableside_errors.ErrForbidden) {
		t.Fatalf("err = %v", err)
	}
	if ran {
		t.Fatal("handler ran after proxy denial")
	}
}

func TestExecuteUnknownCommand(t *testing.T) {
	bus := NewBus()
	cmd := CallWaiterCommand{OrderID: 1, TableID: 2, Name: "Ann"}
	if _, err := bus.Execute(context.Background(), cmd); !errors.Is(err, ErrHandlerNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestCheckoutValidate(t *testing.T) {
	c := domain.Principal{ID: 3, Role: domain.RoleCustomer}
	tests := []struct {
		name   string
		basket map[uint]int
		want   error
	}{
		{"empty", map[uint]int{}, tableside_errors.ErrEmptyBasket},
		{"all zero", map[uint]int{1: 0}, tableside_errors.ErrEmptyBasket},
		{"negative", map[uint]int{1: -1}, tableside_errors.ErrInvalidInput},
		{"ok", map[uint]int{1: 2, 2: 0}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckoutCommand{Customer: c, TableID: 1, Basket: tt.basket}.Validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDeniedCommandIsLogged(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	bus := NewBus(&denyAll{}).WithLogger(&logger.Logger{Logger: zap.New(core)})
	bus.Register(TypeOrderTransition, HandlerFunc(func(context.Context, Command) (Result, error) {
		return Result{}, nil
	}))

	cmd := TransitionOrderCommand{OrderID: 9, TargetStatus: order.StatusCooking, Actor: domain.Principal{ID: 4, Role: domain.RoleWaiter}}
	if _, err := bus.Execute(context.Background(), cmd); !errors.Is(err, tableside_errors.ErrForbidden) {
		t.Fatalf("err = %v", err)
	}

	entries := logs.FilterMessage("command denied").All()
	if len(entries) != 1 {
		t.Fatalf("denied entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["command"] != TypeOrderTransition {
		t.Errorf("command = %v", fields["command"])
	}
	if fields["actor_id"] != uint64(4) {
		t.Errorf("actor_id = %v", fields["actor_id"])
	}
	if fields["actor_role"] != string(domain.RoleWaiter) {
		t.Errorf("actor_role = %v", fields["actor_role"])
	}
}
