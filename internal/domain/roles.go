package domain

import "strings"

type Role string

const (
	RoleWaiter     Role = "WAITER"
	RoleHeadChef   Role = "HEAD_CHEF"
	RoleSousChef   Role = "SOUS_CHEF"
	RoleGrillChef  Role = "GRILL_CHEF"
	RolePorter     Role = "PORTER"
	RoleDishWasher Role = "DISH_WASHER"
	RoleAdmin      Role = "ADMIN"

	// RoleCustomer is carried by tokens issued at the table.
	RoleCustomer Role = "customer"
	// RoleSystem is never issued in a token. Internal jobs act with it.
	RoleSystem Role = "system"
)

var staffRoles = map[Role]struct{}{
	RoleWaiter:     {},
	RoleHeadChef:   {},
	RoleSousChef:   {},
	RoleGrillChef:  {},
	RolePorter:     {},
	RoleDishWasher: {},
	RoleAdmin:      {},
}

// ParseRole accepts any casing of a known role name.
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(RoleCustomer)) {
		return RoleCustomer, true
	}
	r := Role(strings.ToUpper(s))
	if _, ok := staffRoles[r]; ok {
		return r, true
	}
	return "", false
}

func (r Role) IsStaff() bool {
	_, ok := staffRoles[r]
	return ok
}

func (r Role) IsKitchen() bool {
	switch r {
	case RoleHeadChef, RoleSousChef, RoleGrillChef, RolePorter:
		return true
	}
	return false
}

func (r Role) IsWaiter() bool {
	return r == RoleWaiter
}

const (
	GroupWaiter  = "waiter"
	GroupKitchen = "kitchen"
)

// NotificationGroup is the channel a staff dashboard listens on by default:
// waiters on "waiter", every other staff role on "kitchen".
func (r Role) NotificationGroup() string {
	if r == RoleWaiter {
		return GroupWaiter
	}
	return GroupKitchen
}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	ID   uint
	Name string
	Role Role
}

func (p Principal) IsStaff() bool {
	return p.Role.IsStaff()
}

func (p Principal) IsCustomer() bool {
	return p.Role == RoleCustomer
}
