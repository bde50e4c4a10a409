package domain

import (
	"time"

	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusOpen       Status = "open"
	StatusCheckedOut Status = "checked_out"
	StatusAbandoned  Status = "abandoned"
)

// CartItem carries the live catalog name and price, read together with the
// line. They are only frozen when checkout copies them into an order.
type CartItem struct {
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

type Cart struct {
	ID         string
	UserID     string
	Status     Status
	CouponCode string
	// Coupon is the coupon CouponCode currently resolves to, nil when the
	// code is unset or the coupon has since been deleted.
	Coupon    *coupondomain.Coupon
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c Cart) Item(productID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return it, true
		}
	}
	return CartItem{}, false
}

func (c Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

func (c Cart) Discount(now time.Time) decimal.Decimal {
	return coupondomain.ComputeDiscount(c.Coupon, c.Subtotal(), now)
}

func (c Cart) Total(now time.Time) decimal.Decimal {
	return c.Subtotal().Sub(c.Discount(now))
}

// Summary is a cart with its money fields evaluated at a single instant.
type Summary struct {
	Cart     Cart
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
	// CouponActive is false when a coupon is attached but not valid at the
	// evaluation instant.
	CouponActive bool
}

func (c Cart) Summarize(now time.Time) Summary {
	subtotal := c.Subtotal()
	discount := coupondomain.ComputeDiscount(c.Coupon, subtotal, now)
	return Summary{
		Cart:         c,
		Subtotal:     subtotal,
		Discount:     discount,
		Total:        subtotal.Sub(discount),
		CouponActive: c.Coupon != nil && c.Coupon.IsValidAt(now),
	}
}
