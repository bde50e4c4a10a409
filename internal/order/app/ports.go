package app

import (
	"context"

	"github.com/dwikikusuma/freshcart/internal/order/domain"
)

type OrderRepo interface {
	// Get returns ErrNotFound for a missing or malformed id.
	Get(ctx context.Context, orderID string) (domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	// TransitionStatus moves the order from -> to only if it is still in
	// from. It reports whether a row changed.
	TransitionStatus(ctx context.Context, orderID string, from, to domain.Status) (bool, error)
}
