package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

const ProviderStripe = "stripe"

// Payment is the one provider-side record of an order's payment.
type Payment struct {
	ID              string
	OrderID         string
	Provider        string
	Amount          decimal.Decimal
	Currency        string
	Status          Status
	PaymentIntentID string
	RawResponse     json.RawMessage
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MinorUnits converts an amount to integer cents, rounding half away from
// zero.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

type CheckoutLine struct {
	Name       string
	UnitAmount int64
	Quantity   int64
}

// CheckoutRequest is everything a gateway needs to open a hosted payment
// page for one order. Amounts are in minor units.
type CheckoutRequest struct {
	OrderID        string
	UserID         string
	CustomerEmail  string
	Currency       string
	Lines          []CheckoutLine
	DiscountAmount int64
	SuccessURL     string
	CancelURL      string
}

type CheckoutSession struct {
	ID  string
	URL string
}

const EventCheckoutCompleted = "checkout.session.completed"

// Event is a gateway notification whose signature has been verified.
type Event struct {
	ID              string
	Type            string
	SessionID       string
	PaymentIntentID string
	Metadata        map[string]string
	Raw             json.RawMessage
}
