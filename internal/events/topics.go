package events

import (
	"strconv"
	"strings"

	"tableside/internal/domain"
)

// DashboardOrders carries refresh pings for every staff dashboard.
const DashboardOrders = "dashboard:orders"

func OrderTopic(orderID uint) string {
	return "orders:customer:" + strconv.FormatUint(uint64(orderID), 10)
}

// RoleTopic lower-cases the role so "WAITER" and "waiter" share a topic.
func RoleTopic(role string) string {
	return "notifications:" + strings.ToLower(strings.TrimSpace(role))
}

func MenuNotificationsTopic(customerID uint) string {
	return "menu:notifications:" + strconv.FormatUint(uint64(customerID), 10)
}

// WaiterTopic is the role topic all waiters listen on.
var WaiterTopic = RoleTopic(string(domain.RoleWaiter))

// KitchenTopic groups every non-waiter staff member.
var KitchenTopic = RoleTopic(domain.GroupKitchen)

// NotificationTopicFor is the role channel a staff dashboard follows.
func NotificationTopicFor(role domain.Role) string {
	return RoleTopic(role.NotificationGroup())
}
