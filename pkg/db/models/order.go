package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradelink-backend/pkg/enums"
)

// Order is a single purchased cart line together with its delivery tracking.
type Order struct {
	ID                   uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	UserID               uuid.UUID            `gorm:"column:user_id;type:uuid;not null;index:idx_orders_payment_user,priority:2"`
	Total                decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	Address              string               `gorm:"column:address;not null;default:''"`
	PaymentID            *string              `gorm:"column:payment_id;index:idx_orders_payment_user,priority:1"`
	Status               enums.OrderStatus    `gorm:"column:status;type:text;not null;default:'pending'"`
	TrackingStatus       enums.TrackingStatus `gorm:"column:tracking_status;type:text;not null;default:'pending'"`
	DeliveryType         *enums.DeliveryType  `gorm:"column:delivery_type;type:text"`
	DeliveryPersonID     *uuid.UUID           `gorm:"column:delivery_person_id;type:uuid;index"`
	DeliveryOTP          *string              `gorm:"column:delivery_otp"`
	DeliveryOTPExpiresAt *time.Time           `gorm:"column:delivery_otp_expires_at"`
	DeliveryOTPAttempts  int                  `gorm:"column:delivery_otp_attempts;not null;default:0"`
	OutForDeliveryAt     *time.Time           `gorm:"column:out_for_delivery_at"`
	DeliveredAt          *time.Time           `gorm:"column:delivered_at"`
	Items                []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt            time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// ClearDeliveryCode drops any issued handoff code and its failed attempts.
func (o *Order) ClearDeliveryCode() {
	o.DeliveryOTP = nil
	o.DeliveryOTPExpiresAt = nil
	o.DeliveryOTPAttempts = 0
}

// MarkDelivered moves tracking to delivered, stamping the first delivery time
// and clearing the handoff code.
func (o *Order) MarkDelivered(at time.Time) {
	o.TrackingStatus = enums.TrackingStatusDelivered
	if o.DeliveredAt == nil {
		stamp := at.UTC()
		o.DeliveredAt = &stamp
	}
	o.ClearDeliveryCode()
}
