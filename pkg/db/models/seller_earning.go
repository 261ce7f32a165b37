package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradelink-backend/pkg/enums"
)

// SellerEarning records the seller's share of one order item. Subtotal always
// equals PlatformCommission plus SellerAmount.
type SellerEarning struct {
	ID                 uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderID            uuid.UUID           `gorm:"column:order_id;type:uuid;not null;index"`
	OrderItemID        uuid.UUID           `gorm:"column:order_item_id;type:uuid;not null;uniqueIndex"`
	ProductID          uuid.UUID           `gorm:"column:product_id;type:uuid;not null"`
	SellerID           uuid.UUID           `gorm:"column:seller_id;type:uuid;not null;index"`
	Quantity           int                 `gorm:"column:quantity;not null"`
	UnitPrice          decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	Subtotal           decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CommissionPercent  decimal.Decimal     `gorm:"column:commission_percent;type:numeric(5,2);not null"`
	PlatformCommission decimal.Decimal     `gorm:"column:platform_commission;type:numeric(12,2);not null"`
	SellerAmount       decimal.Decimal     `gorm:"column:seller_amount;type:numeric(12,2);not null"`
	Status             enums.EarningStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	SettledAt          *time.Time          `gorm:"column:settled_at"`
	Notes              *string             `gorm:"column:notes"`
	CreatedAt          time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *SellerEarning) BeforeCreate(*gorm.DB) error {
	assignID(&e.ID)
	return nil
}
