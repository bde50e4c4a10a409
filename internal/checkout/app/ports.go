package app

import (
	"context"

	addressdomain "github.com/dwikikusuma/freshcart/internal/address/domain"
	cartdomain "github.com/dwikikusuma/freshcart/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/freshcart/internal/catalog/domain"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
)

type CartStore interface {
	// LockOpen returns cart ErrNoOpenCart when the user has no open cart.
	LockOpen(ctx context.Context, userID string) (cartdomain.Cart, error)
	MarkCheckedOut(ctx context.Context, cartID string) error
}

type OrderStore interface {
	Create(ctx context.Context, order orderdomain.Order) (orderdomain.Order, error)
}

type AddressResolver interface {
	Resolve(ctx context.Context, userID string, addressID *string) (addressdomain.Address, error)
}

// Repos are the stores bound to one transaction.
type Repos struct {
	Carts     CartStore
	Orders    OrderStore
	Addresses AddressResolver
}

// UnitOfWork runs fn in a single transaction; any error from fn rolls back
// every write made through the Repos it was given.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r Repos) error) error
}

type CartReader interface {
	GetCart(ctx context.Context, userID string) (cartdomain.Summary, error)
}

type CatalogReader interface {
	GetSellableProduct(ctx context.Context, id string) (catalogdomain.Product, error)
}
