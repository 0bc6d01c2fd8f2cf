package models

import "fmt"

// Role identifies who is acting. Customers are not employees but share the
// same set so a principal can carry any of the four.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleWaiter   Role = "waiter"
	RoleChef     Role = "chef"
	RoleAdmin    Role = "admin"
)

// ParseRole converts raw input (token claims, request bodies) into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleCustomer, RoleWaiter, RoleChef, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

// IsEmployee reports whether the role belongs to the employee table.
func (r Role) IsEmployee() bool {
	switch r {
	case RoleWaiter, RoleChef, RoleAdmin:
		return true
	case RoleCustomer:
		return false
	default:
		return false
	}
}
