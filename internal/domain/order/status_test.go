package order

import (
	"testing"

	"tableside/internal/domain"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusReadyToCook, true},
		{StatusReadyToCook, StatusCooking, true},
		{StatusCooking, StatusReadyToDeliver, true},
		{StatusReadyToDeliver, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusReadyToDeliver, StatusCancelled, true},
		{StatusCooking, StatusUnavailable, true},
		{StatusPending, StatusCooking, false},
		{StatusReadyToCook, StatusCompleted, false},
		{StatusCompleted, StatusCooking, false},
		{StatusCancelled, StatusUnavailable, false},
		{StatusUnavailable, StatusPending, false},
		{StatusCooking, StatusPending, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminalStatesHaveNoEdges(t *testing.T) {
	all := []Status{StatusPending, StatusReadyToCook, StatusCooking, StatusReadyToDeliver,
		StatusCompleted, StatusCancelled, StatusUnavailable}
	for _, from := range []Status{StatusCompleted, StatusCancelled, StatusUnavailable} {
		if !from.IsTerminal() {
			t.Fatalf("%s should be terminal", from)
		}
		for _, to := range all {
			if CanTransition(from, to) {
				t.Errorf("terminal %s must not move to %s", from, to)
			}
		}
	}
}

func TestRoleMayEnter(t *testing.T) {
	tests := []struct {
		role   domain.Role
		target Status
		want   bool
	}{
		{domain.RoleWaiter, StatusReadyToCook, true},
		{domain.RoleHeadChef, StatusReadyToCook, false},
		{domain.RoleSousChef, StatusCooking, true},
		{domain.RoleWaiter, StatusCooking, false},
		{domain.RolePorter, StatusReadyToDeliver, true},
		{domain.RoleDishWasher, StatusReadyToDeliver, false},
		{domain.RoleWaiter, StatusCompleted, true},
		{domain.RoleGrillChef, StatusCompleted, false},
		{domain.RoleDishWasher, StatusCancelled, true},
		{domain.RoleCustomer, StatusCancelled, false},
		{domain.RoleAdmin, StatusCooking, true},
		{domain.RoleAdmin, StatusUnavailable, false},
		{domain.RoleSystem, StatusUnavailable, true},
		{domain.RoleSystem, StatusReadyToCook, false},
		{domain.RoleWaiter, StatusPending, false},
	}
	for _, tt := range tests {
		if got := RoleMayEnter(tt.role, tt.target); got != tt.want {
			t.Errorf("RoleMayEnter(%s, %s) = %v, want %v", tt.role, tt.target, got, tt.want)
		}
	}
}

func TestRecomputeTotal(t *testing.T) {
	o := &Order{Items: []OrderItem{
		{Price: LineTotal(2.5, 3)},
		{Price: 0.1},
		{Price: 0.2},
	}}
	o.RecomputeTotal()
	if o.TotalPrice != 7.8 {
		t.Fatalf("total = %v, want 7.8", o.TotalPrice)
	}
}
