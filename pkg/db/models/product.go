package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a seller listing. Retailer listings created from a delivered
// wholesale order point back at the wholesale product via SourceProductID.
type Product struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OwnerID         uuid.UUID       `gorm:"column:owner_id;type:uuid;not null;index"`
	SourceProductID *uuid.UUID      `gorm:"column:source_product_id;type:uuid;index"`
	Name            string          `gorm:"column:name;not null"`
	Description     string          `gorm:"column:description;not null;default:''"`
	Category        string          `gorm:"column:category;not null;default:''"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Discount        decimal.Decimal `gorm:"column:discount;type:numeric(5,2);not null;default:0"`
	Multiple        int             `gorm:"column:multiple;not null;default:1"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	Sold            int             `gorm:"column:sold;not null;default:0"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	if p.Multiple < 1 {
		p.Multiple = 1
	}
	return nil
}
