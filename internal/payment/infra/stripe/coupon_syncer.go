package stripe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// CouponSyncer mirrors shop coupons as Stripe coupons keyed by coupon id.
type CouponSyncer struct {
	sc       *client.API
	currency string
	log      *slog.Logger
	now      func() time.Time
}

func NewCouponSyncer(sc *client.API, currency string, log *slog.Logger) *CouponSyncer {
	return &CouponSyncer{
		sc:       sc,
		currency: strings.ToLower(currency),
		log:      log,
		now:      time.Now,
	}
}

func (s *CouponSyncer) Name() string { return "stripe" }

// couponParams returns nil for coupons that are not valid right now; those
// are not mirrored.
func (s *CouponSyncer) couponParams(c coupondomain.Coupon) *stripe.CouponParams {
	if !c.IsValidAt(s.now()) {
		return nil
	}

	params := &stripe.CouponParams{
		ID:       stripe.String(c.ID),
		Name:     stripe.String(c.Code),
		Duration: stripe.String(string(stripe.CouponDurationOnce)),
	}
	switch c.DiscountType {
	case coupondomain.DiscountPercent:
		pct, _ := c.Amount.Float64()
		params.PercentOff = stripe.Float64(pct)
	case coupondomain.DiscountAmount:
		params.AmountOff = stripe.Int64(c.Amount.Shift(2).Round(0).IntPart())
		params.Currency = stripe.String(s.currency)
	default:
		return nil
	}
	if c.ValidTo != nil {
		params.RedeemBy = stripe.Int64(c.ValidTo.Unix())
	}
	return params
}

func (s *CouponSyncer) SyncCoupon(ctx context.Context, c coupondomain.Coupon) error {
	params := s.couponParams(c)
	if params == nil {
		s.log.Debug("coupon not mirrored", slog.String("code", c.Code))
		return nil
	}
	params.Context = ctx

	_, err := s.sc.Coupons.New(params)
	if isCode(err, stripe.ErrorCodeResourceAlreadyExists) {
		s.log.Info("stripe coupon already exists", slog.String("code", c.Code))
		return nil
	}
	if err != nil {
		return fmt.Errorf("create stripe coupon %s: %w", c.Code, err)
	}
	return nil
}

func (s *CouponSyncer) RemoveCoupon(ctx context.Context, c coupondomain.Coupon) error {
	params := &stripe.CouponParams{}
	params.Context = ctx

	_, err := s.sc.Coupons.Del(c.ID, params)
	if isCode(err, stripe.ErrorCodeResourceMissing) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete stripe coupon %s: %w", c.Code, err)
	}
	return nil
}
