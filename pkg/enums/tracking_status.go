package enums

import "fmt"

// TrackingStatus tracks the physical handoff of an order.
type TrackingStatus string

const (
	TrackingStatusPending        TrackingStatus = "pending"
	TrackingStatusOutForDelivery TrackingStatus = "out_for_delivery"
	TrackingStatusDelivered      TrackingStatus = "delivered"
)

var validTrackingStatuses = []TrackingStatus{
	TrackingStatusPending,
	TrackingStatusOutForDelivery,
	TrackingStatusDelivered,
}

// String implements fmt.Stringer.
func (v TrackingStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known TrackingStatus.
func (v TrackingStatus) IsValid() bool {
	for _, candidate := range validTrackingStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseTrackingStatus converts raw input into a TrackingStatus.
func ParseTrackingStatus(value string) (TrackingStatus, error) {
	for _, candidate := range validTrackingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tracking status %q", value)
}
