// Package money holds the decimal rounding rules shared by pricing and
// settlement. Amounts are two-place decimals, rounded half away from zero.
package money

import "github.com/shopspring/decimal"

const Places = 2

var hundred = decimal.NewFromInt(100)

// Round rounds an amount to currency precision.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Places)
}

// Percent returns pct percent of amount, rounded to currency precision.
func Percent(amount, pct decimal.Decimal) decimal.Decimal {
	return Round(amount.Mul(pct).Div(hundred))
}

// ValidPercent reports whether pct lies in [0, 100].
func ValidPercent(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}

// UnitPrice applies a percentage discount to price, rounds to currency
// precision, then scales by the packaging multiple.
func UnitPrice(price, discountPct decimal.Decimal, multiple int) decimal.Decimal {
	if multiple < 1 {
		multiple = 1
	}
	discounted := Round(price.Mul(hundred.Sub(discountPct)).Div(hundred))
	return discounted.Mul(decimal.NewFromInt(int64(multiple)))
}

// Sum adds amounts.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Format renders an amount with exactly two decimals.
func Format(d decimal.Decimal) string {
	return Round(d).StringFixed(Places)
}
