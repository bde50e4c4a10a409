package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

var transitions = map[Status][]Status{
	StatusPending: {StatusPaid, StatusCanceled},
	StatusPaid:    {StatusShipped, StatusCanceled},
	StatusShipped: {StatusDelivered},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// OrderItem is a line frozen at checkout. Name and price never follow later
// catalog changes.
type OrderItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int32
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt32(i.Quantity))
}

type Order struct {
	ID              string
	UserID          string
	AddressID       string
	Status          Status
	CouponCode      string
	DiscountAmount  decimal.Decimal
	StripeSessionID string
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.LineTotal())
	}
	return total
}

// Total is derived from the items and the captured discount; it is never
// stored.
func (o Order) Total() decimal.Decimal {
	total := o.Subtotal().Sub(o.DiscountAmount)
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

func (o Order) IsOwnedBy(userID string) bool { return o.UserID == userID }
