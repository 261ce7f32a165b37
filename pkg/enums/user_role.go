package enums

import "fmt"

// UserRole is the marketplace role carried by a user and their access token.
type UserRole string

const (
	UserRoleWholesaler UserRole = "wholesaler"
	UserRoleRetailer   UserRole = "retailer"
	UserRoleConsumer   UserRole = "consumer"
	UserRoleDelivery   UserRole = "delivery"
	UserRoleAdmin      UserRole = "admin"
)

var validUserRoles = []UserRole{
	UserRoleWholesaler,
	UserRoleRetailer,
	UserRoleConsumer,
	UserRoleDelivery,
	UserRoleAdmin,
}

// String implements fmt.Stringer.
func (v UserRole) String() string {
	return string(v)
}

// IsValid reports whether the value is a known UserRole.
func (v UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole.
func ParseUserRole(value string) (UserRole, error) {
	for _, candidate := range validUserRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}

// IsSeller reports whether the role lists products for sale.
func (v UserRole) IsSeller() bool {
	return v == UserRoleWholesaler || v == UserRoleRetailer
}

// IsBuyer reports whether the role places orders.
func (v UserRole) IsBuyer() bool {
	return v == UserRoleRetailer || v == UserRoleConsumer
}
