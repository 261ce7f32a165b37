package earnings

import (
	"fmt"

	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/angelmondragon/tradelink-backend/pkg/money"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Split is the division of an item subtotal between platform and seller.
type Split struct {
	PlatformCommission decimal.Decimal
	SellerAmount       decimal.Decimal
}

// Compute splits subtotal by commission percent. The seller receives whatever
// remains after the rounded commission, so the parts always sum to subtotal.
func Compute(subtotal, commissionPercent decimal.Decimal) (Split, error) {
	if !money.ValidPercent(commissionPercent) {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("commission percent %s out of range", commissionPercent))
	}
	if subtotal.IsNegative() {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}
	commission := money.Percent(subtotal, commissionPercent)
	return Split{
		PlatformCommission: commission,
		SellerAmount:       subtotal.Sub(commission),
	}, nil
}

// Calculator resolves commission rates and builds earning rows.
type Calculator struct {
	defaultPercent decimal.Decimal
}

// NewCalculator returns a calculator charging defaultPercent to sellers
// without an override.
func NewCalculator(defaultPercent decimal.Decimal) (*Calculator, error) {
	if !money.ValidPercent(defaultPercent) {
		return nil, fmt.Errorf("default commission percent %s out of range", defaultPercent)
	}
	return &Calculator{defaultPercent: defaultPercent}, nil
}

// RateFor returns the seller's own commission percent when set.
func (c *Calculator) RateFor(seller *models.User) decimal.Decimal {
	if seller != nil && seller.CommissionPercent != nil && money.ValidPercent(*seller.CommissionPercent) {
		return *seller.CommissionPercent
	}
	return c.defaultPercent
}

// LineEarning identifies the item an earning is recorded against.
type LineEarning struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	ProductID   uuid.UUID
	SellerID    uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
}

// Build returns the pending earning row for one order item.
func (c *Calculator) Build(line LineEarning, seller *models.User) (*models.SellerEarning, error) {
	rate := c.RateFor(seller)
	split, err := Compute(line.Subtotal, rate)
	if err != nil {
		return nil, err
	}
	return &models.SellerEarning{
		OrderID:            line.OrderID,
		OrderItemID:        line.OrderItemID,
		ProductID:          line.ProductID,
		SellerID:           line.SellerID,
		Quantity:           line.Quantity,
		UnitPrice:          line.UnitPrice,
		Subtotal:           line.Subtotal,
		CommissionPercent:  rate,
		PlatformCommission: split.PlatformCommission,
		SellerAmount:       split.SellerAmount,
		Status:             enums.EarningStatusPending,
	}, nil
}
