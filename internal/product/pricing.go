package product

import (
	"github.com/shopspring/decimal"

	"github.com/workstaion27-png/EliteDrops-Ecommerce-Platform-sub002/internal/apperr"
)

// DefaultMargin is the cost multiplier applied when an import names none.
var DefaultMargin = decimal.RequireFromString("2.5")

// Price returns cost × margin rounded half-up to cents.
func Price(cost, margin decimal.Decimal) (decimal.Decimal, error) {
	if !margin.IsPositive() {
		return decimal.Zero, apperr.Validation("profit_margin must be greater than 0")
	}
	if cost.IsNegative() {
		return decimal.Zero, apperr.Validation("cost must not be negative")
	}
	return cost.Mul(margin).Round(2), nil
}

// ParseMargin parses a configured margin, falling back to DefaultMargin.
func ParseMargin(s string) decimal.Decimal {
	m, err := decimal.NewFromString(s)
	if err != nil || !m.IsPositive() {
		return DefaultMargin
	}
	return m
}
