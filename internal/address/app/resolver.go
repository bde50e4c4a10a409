package app

import (
	"context"
	"errors"
	"strings"

	"github.com/dwikikusuma/freshcart/internal/address/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
)

var (
	ErrNotFound     = apperr.NotFound("address not found")
	ErrNotOwned     = apperr.InvalidState("address does not belong to user")
	ErrNoAddress    = apperr.InvalidState("no shipping address: pass address_id or set a default address")
	ErrBadAddressID = apperr.Validation("invalid address id")
)

type AddressRepo interface {
	// Get returns ErrNotFound for a missing id.
	Get(ctx context.Context, id string) (domain.Address, error)
	// GetDefault returns ErrNotFound when the user has no default address.
	GetDefault(ctx context.Context, userID string) (domain.Address, error)
}

// Resolver is the one place that decides which address an order ships to.
type Resolver struct {
	repo AddressRepo
}

func NewResolver(repo AddressRepo) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve picks addressID when given and owned by userID, otherwise the
// user's default address. Every failure to resolve is an InvalidState.
func (r *Resolver) Resolve(ctx context.Context, userID string, addressID *string) (domain.Address, error) {
	if addressID != nil && strings.TrimSpace(*addressID) != "" {
		addr, err := r.repo.Get(ctx, strings.TrimSpace(*addressID))
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrBadAddressID) {
			return domain.Address{}, ErrNotOwned
		}
		if err != nil {
			return domain.Address{}, err
		}
		if addr.UserID != userID {
			return domain.Address{}, ErrNotOwned
		}
		return addr, nil
	}

	addr, err := r.repo.GetDefault(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return domain.Address{}, ErrNoAddress
	}
	if err != nil {
		return domain.Address{}, err
	}
	return addr, nil
}
