package app

import (
	"context"

	"github.com/dwikikusuma/freshcart/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/freshcart/internal/catalog/domain"
	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
)

type CartRepo interface {
	// GetOrCreateOpen returns the user's open cart, inserting a new one when
	// none exists. It never reopens a checked-out cart.
	GetOrCreateOpen(ctx context.Context, userID string) (domain.Cart, error)
	// AddItem inserts the line or increments its quantity. It returns
	// ErrNoOpenCart when the cart has been closed.
	AddItem(ctx context.Context, cartID, productID string, quantity int32) error
	// SetItemQuantity reports false when the line does not exist or the cart
	// has been closed.
	SetItemQuantity(ctx context.Context, cartID, productID string, quantity int32) (bool, error)
	RemoveItem(ctx context.Context, cartID, productID string) error
	// SetCoupon attaches code; an empty code detaches. It returns
	// ErrNoOpenCart when the cart has been closed.
	SetCoupon(ctx context.Context, cartID, code string) error
}

type ProductReader interface {
	GetSellableProduct(ctx context.Context, id string) (catalogdomain.Product, error)
}

type CouponReader interface {
	Lookup(ctx context.Context, code string) (coupondomain.Coupon, error)
}
