package domain

import "github.com/shopspring/decimal"

// QuoteLine is a cart line re-priced against the catalog. Available is false
// when the product has been retired since it was added.
type QuoteLine struct {
	ProductID string
	Name      string
	Quantity  int32
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
	Available bool
}

// Quote previews what Checkout would charge right now without writing
// anything.
type Quote struct {
	Lines      []QuoteLine
	CouponCode string
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	// Ready is true when the cart is non-empty and every line is available.
	Ready bool
}
