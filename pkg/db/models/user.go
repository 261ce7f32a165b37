package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/tradelink-backend/pkg/enums"
)

// User is the marketplace identity. Accounts are provisioned by the auth
// service; this engine only reads them and locks buyer rows.
type User struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Email             string           `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName         string           `gorm:"column:first_name;not null"`
	LastName          string           `gorm:"column:last_name;not null;default:''"`
	Phone             *string          `gorm:"column:phone"`
	Role              enums.UserRole   `gorm:"column:role;type:text;not null"`
	CommissionPercent *decimal.Decimal `gorm:"column:commission_percent;type:numeric(5,2)"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}
