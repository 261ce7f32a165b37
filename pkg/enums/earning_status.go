package enums

import "fmt"

// EarningStatus tracks whether a seller earning has been paid out.
type EarningStatus string

const (
	EarningStatusPending   EarningStatus = "pending"
	EarningStatusSettled   EarningStatus = "settled"
	EarningStatusCancelled EarningStatus = "cancelled"
)

var validEarningStatuses = []EarningStatus{
	EarningStatusPending,
	EarningStatusSettled,
	EarningStatusCancelled,
}

// String implements fmt.Stringer.
func (v EarningStatus) String() string {
	return string(v)
}

// IsValid reports whether the value is a known EarningStatus.
func (v EarningStatus) IsValid() bool {
	for _, candidate := range validEarningStatuses {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseEarningStatus converts raw input into a EarningStatus.
func ParseEarningStatus(value string) (EarningStatus, error) {
	for _, candidate := range validEarningStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid earning status %q", value)
}
