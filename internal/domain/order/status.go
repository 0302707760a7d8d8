package order

import (
	"strings"

	"tableside/internal/domain"
)

// Status is the lifecycle position of an order.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusReadyToCook    Status = "READY_TO_COOK"
	StatusCooking        Status = "COOKING"
	StatusReadyToDeliver Status = "READY_TO_DELIVER"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
	StatusUnavailable    Status = "UNAVAILABLE"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{
	StatusPending, StatusReadyToCook, StatusCooking, StatusReadyToDeliver,
	StatusCompleted, StatusCancelled, StatusUnavailable,
}

// Action names the workflow step that moves an order into a status.
type Action string

const (
	ActionConfirm     Action = "confirm"
	ActionStart       Action = "start"
	ActionReady       Action = "ready"
	ActionDeliver     Action = "deliver"
	ActionCancel      Action = "cancel"
	ActionUnavailable Action = "unavailable"
)

var allowed = map[Status]map[Status]struct{}{
	StatusPending: {
		StatusReadyToCook: {},
		StatusCancelled:   {},
		StatusUnavailable: {},
	},
	StatusReadyToCook: {
		StatusCooking:     {},
		StatusCancelled:   {},
		StatusUnavailable: {},
	},
	StatusCooking: {
		StatusReadyToDeliver: {},
		StatusCancelled:      {},
		StatusUnavailable:    {},
	},
	StatusReadyToDeliver: {
		StatusCompleted:   {},
		StatusCancelled:   {},
		StatusUnavailable: {},
	},
}

// Each target status is reachable by exactly one action.
var actionByTarget = map[Status]Action{
	StatusReadyToCook:    ActionConfirm,
	StatusCooking:        ActionStart,
	StatusReadyToDeliver: ActionReady,
	StatusCompleted:      ActionDeliver,
	StatusCancelled:      ActionCancel,
	StatusUnavailable:    ActionUnavailable,
}

func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusReadyToCook, StatusCooking, StatusReadyToDeliver,
		StatusCompleted, StatusCancelled, StatusUnavailable:
		return st, true
	}
	return "", false
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusUnavailable:
		return true
	}
	return false
}

// CanTransition checks if from->to is a legal edge.
func CanTransition(from, to Status) bool {
	nexts, ok := allowed[from]
	if !ok {
		return false
	}
	_, ok = nexts[to]
	return ok
}

// ActionFor returns the action that enters target. PENDING has none.
func ActionFor(target Status) (Action, bool) {
	a, ok := actionByTarget[target]
	return a, ok
}

// RoleMayPerform reports whether role is allowed to run action.
// ADMIN stands in for any staff role but never for the system actor.
func RoleMayPerform(role domain.Role, action Action) bool {
	switch action {
	case ActionConfirm, ActionDeliver:
		return role.IsWaiter() || role == domain.RoleAdmin
	case ActionStart, ActionReady:
		return role.IsKitchen() || role == domain.RoleAdmin
	case ActionCancel:
		return role.IsStaff()
	case ActionUnavailable:
		return role == domain.RoleSystem
	}
	return false
}

// RoleMayEnter combines ActionFor and RoleMayPerform.
func RoleMayEnter(role domain.Role, target Status) bool {
	action, ok := ActionFor(target)
	if !ok {
		return false
	}
	return RoleMayPerform(role, action)
}
