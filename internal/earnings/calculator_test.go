package earnings

import (
	"testing"

	"github.com/angelmondragon/tradelink-backend/pkg/db/models"
	"github.com/angelmondragon/tradelink-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/tradelink-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputeSplitsSubtotal(t *testing.T) {
	cases := []struct {
		subtotal, pct, commission, seller string
	}{
		{"20.00", "5", "1.00", "19.00"},
		{"33.33", "7.5", "2.50", "30.83"},
		{"0.01", "50", "0.01", "0.00"},
		{"99.99", "0", "0.00", "99.99"},
		{"10.00", "100", "10.00", "0.00"},
	}
	for _, tc := range cases {
		split, err := Compute(dec(tc.subtotal), dec(tc.pct))
		require.NoError(t, err)
		assert.True(t, split.PlatformCommission.Equal(dec(tc.commission)), "commission for %s@%s: %s", tc.subtotal, tc.pct, split.PlatformCommission)
		assert.True(t, split.SellerAmount.Equal(dec(tc.seller)), "seller for %s@%s: %s", tc.subtotal, tc.pct, split.SellerAmount)
		assert.True(t, split.PlatformCommission.Add(split.SellerAmount).Equal(dec(tc.subtotal)))
	}
}

func TestComputeSumsExactlyAcrossRange(t *testing.T) {
	for cents := int64(0); cents < 5000; cents += 7 {
		subtotal := decimal.New(cents, -2)
		for _, pct := range []string{"2.5", "5", "12.75", "33.33"} {
			split, err := Compute(subtotal, dec(pct))
			require.NoError(t, err)
			require.True(t, split.PlatformCommission.Add(split.SellerAmount).Equal(subtotal))
		}
	}
}

func TestComputeRejectsBadInput(t *testing.T) {
	_, err := Compute(dec("10"), dec("101"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = Compute(dec("-1"), dec("5"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCalculatorRateFor(t *testing.T) {
	calc, err := NewCalculator(dec("5"))
	require.NoError(t, err)

	override := dec("2.5")
	assert.True(t, calc.RateFor(&models.User{CommissionPercent: &override}).Equal(override))
	assert.True(t, calc.RateFor(&models.User{}).Equal(dec("5")))
	assert.True(t, calc.RateFor(nil).Equal(dec("5")))

	_, err = NewCalculator(dec("-3"))
	require.Error(t, err)
}

func TestCalculatorBuild(t *testing.T) {
	calc, err := NewCalculator(dec("5"))
	require.NoError(t, err)

	line := LineEarning{
		OrderID:     uuid.New(),
		OrderItemID: uuid.New(),
		ProductID:   uuid.New(),
		SellerID:    uuid.New(),
		Quantity:    2,
		UnitPrice:   dec("10.00"),
		Subtotal:    dec("20.00"),
	}
	earning, err := calc.Build(line, nil)
	require.NoError(t, err)
	assert.Equal(t, enums.EarningStatusPending, earning.Status)
	assert.True(t, earning.PlatformCommission.Equal(dec("1.00")))
	assert.True(t, earning.SellerAmount.Equal(dec("19.00")))
	assert.True(t, earning.CommissionPercent.Equal(dec("5")))
	assert.Equal(t, line.OrderItemID, earning.OrderItemID)
}
