package enums

import "fmt"

// DeliveryType records which hop of the supply chain an order travels.
type DeliveryType string

const (
	DeliveryTypeWholesalerToRetailer DeliveryType = "wholesaler_to_retailer"
	DeliveryTypeRetailerToConsumer   DeliveryType = "retailer_to_consumer"
)

var validDeliveryTypes = []DeliveryType{
	DeliveryTypeWholesalerToRetailer,
	DeliveryTypeRetailerToConsumer,
}

// String implements fmt.Stringer.
func (v DeliveryType) String() string {
	return string(v)
}

// IsValid reports whether the value is a known DeliveryType.
func (v DeliveryType) IsValid() bool {
	for _, candidate := range validDeliveryTypes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseDeliveryType converts raw input into a DeliveryType.
func ParseDeliveryType(value string) (DeliveryType, error) {
	for _, candidate := range validDeliveryTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery type %q", value)
}

// DeliveryTypeForSeller derives the supply-chain hop from the dispatching seller.
func DeliveryTypeForSeller(role UserRole) (DeliveryType, bool) {
	switch role {
	case UserRoleWholesaler:
		return DeliveryTypeWholesalerToRetailer, true
	case UserRoleRetailer:
		return DeliveryTypeRetailerToConsumer, true
	}
	return "", false
}

// Receiver returns the role expected to acknowledge receipt on this hop.
func (v DeliveryType) Receiver() UserRole {
	if v == DeliveryTypeWholesalerToRetailer {
		return UserRoleRetailer
	}
	return UserRoleConsumer
}
