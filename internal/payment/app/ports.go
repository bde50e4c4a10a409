package app

import (
	"context"

	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/dwikikusuma/freshcart/internal/payment/domain"
	"github.com/shopspring/decimal"
)

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error)
	// ParseEvent verifies the signature header against the payload and
	// returns ErrInvalidSignature when it does not match.
	ParseEvent(payload []byte, signature string) (domain.Event, error)
}

// EventFilter remembers processed webhook event ids. It is an optimisation
// only; callers treat its errors as "not seen".
type EventFilter interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	MarkProcessed(ctx context.Context, eventID string) error
}

type OrderReader interface {
	Get(ctx context.Context, orderID string) (orderdomain.Order, error)
}

type OrderStore interface {
	LockForUpdate(ctx context.Context, orderID string) (orderdomain.Order, error)
	SetStripeSession(ctx context.Context, orderID, sessionID string) error
	TransitionStatus(ctx context.Context, orderID string, from, to orderdomain.Status) (bool, error)
}

type PaymentStore interface {
	// EnsureCreated inserts a created payment for the order or refreshes the
	// amount of one that is still created.
	EnsureCreated(ctx context.Context, orderID string, amount decimal.Decimal, currency string) error
	// MarkSucceeded upserts the order's payment as succeeded.
	MarkSucceeded(ctx context.Context, p domain.Payment) error
}

type Repos struct {
	Orders   OrderStore
	Payments PaymentStore
}

type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}
