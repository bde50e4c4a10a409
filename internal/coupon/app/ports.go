package app

import (
	"context"

	"github.com/dwikikusuma/freshcart/internal/coupon/domain"
)

type CouponRepo interface {
	Create(ctx context.Context, c domain.Coupon) (domain.Coupon, error)
	Update(ctx context.Context, c domain.Coupon) (domain.Coupon, error)
	Delete(ctx context.Context, code string) (domain.Coupon, error)
	GetByCode(ctx context.Context, code string) (domain.Coupon, error)
	List(ctx context.Context) ([]domain.Coupon, error)
}

// Syncer is a payment provider that mirrors coupons on its side. Providers
// are registered explicitly when the service is built.
type Syncer interface {
	Name() string
	SyncCoupon(ctx context.Context, c domain.Coupon) error
	RemoveCoupon(ctx context.Context, c domain.Coupon) error
}
