package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the slice of the catalog the cart and checkout depend on: the
// current name and price, and whether it can still be sold.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
