package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountAmount  DiscountType = "amount"
)

func (t DiscountType) Valid() bool {
	return t == DiscountPercent || t == DiscountAmount
}

type Coupon struct {
	ID           string
	Code         string
	DiscountType DiscountType
	Amount       decimal.Decimal
	Active       bool
	ValidFrom    *time.Time
	ValidTo      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidAt reports whether the coupon is active and now falls inside its
// optional, inclusive validity window.
func (c Coupon) IsValidAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidTo != nil && now.After(*c.ValidTo) {
		return false
	}
	return true
}

// NormalizeCode is the case-insensitive form used for lookups.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns the discount a coupon grants on base at now. The
// result is always within [0, base].
func ComputeDiscount(c *Coupon, base decimal.Decimal, now time.Time) decimal.Decimal {
	if c == nil || !c.IsValidAt(now) || !base.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.DiscountType {
	case DiscountPercent:
		discount = base.Mul(c.Amount).Div(hundred).Round(2)
	case DiscountAmount:
		discount = decimal.Min(c.Amount, base)
	default:
		return decimal.Zero
	}

	if discount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(discount, base)
}
