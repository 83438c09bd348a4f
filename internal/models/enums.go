package models

import "fmt"

// Role gates access to admin routes
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// ParseRole converts a raw role name into a known Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// RoleSet is an allow-list of roles for a route
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Contains(r Role) bool {
	_, ok := s[r]
	return ok
}

// OrderStatus is the fulfillment stage of an order
type OrderStatus string

const (
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusShipped    OrderStatus = "Shipped"
	OrderStatusDelivered  OrderStatus = "Delivered"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusProcessing: 0,
	OrderStatusShipped:    1,
	OrderStatusDelivered:  2,
}

// ParseOrderStatus converts a raw status into a known OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	if _, ok := orderStatusRank[OrderStatus(s)]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return OrderStatus(s), nil
}

// Precedes reports whether s comes strictly before next in the fulfillment order.
func (s OrderStatus) Precedes(next OrderStatus) bool {
	return orderStatusRank[s] < orderStatusRank[next]
}
