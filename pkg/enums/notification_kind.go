package enums

import "fmt"

// NotificationKind names the template a notifier should render.
type NotificationKind string

const (
	NotificationKindDeliveryOTP          NotificationKind = "delivery-otp"
	NotificationKindDeliveryConfirmation NotificationKind = "delivery-confirmation"
	NotificationKindOutForDelivery       NotificationKind = "out-for-delivery"
	NotificationKindEmailVerification    NotificationKind = "email-verification"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindDeliveryOTP,
	NotificationKindDeliveryConfirmation,
	NotificationKindOutForDelivery,
	NotificationKindEmailVerification,
}

// String implements fmt.Stringer.
func (v NotificationKind) String() string {
	return string(v)
}

// IsValid reports whether the value is a known NotificationKind.
func (v NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
