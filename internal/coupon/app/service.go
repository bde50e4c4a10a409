package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dwikikusuma/freshcart/internal/coupon/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var ErrNotFound = apperr.NotFound("coupon not found")

type Service struct {
	repo    CouponRepo
	syncers []Syncer
	log     *slog.Logger
}

func NewService(repo CouponRepo, log *slog.Logger, syncers ...Syncer) *Service {
	return &Service{repo: repo, syncers: syncers, log: log}
}

type CouponInput struct {
	Code         string
	DiscountType domain.DiscountType
	Amount       decimal.Decimal
	Active       bool
	ValidFrom    *time.Time
	ValidTo      *time.Time
}

func (in CouponInput) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return apperr.Validation("code is required")
	}
	if !in.DiscountType.Valid() {
		return apperr.Validation("discount_type must be percent or amount")
	}
	if in.Amount.IsNegative() {
		return apperr.Validation("amount cannot be negative")
	}
	if in.DiscountType == domain.DiscountPercent && in.Amount.GreaterThan(decimal.NewFromInt(100)) {
		return apperr.Validation("percent amount must be between 0 and 100")
	}
	if in.ValidFrom != nil && in.ValidTo != nil && in.ValidTo.Before(*in.ValidFrom) {
		return apperr.Validation("valid_to is before valid_from")
	}
	return nil
}

func (in CouponInput) toDomain() domain.Coupon {
	return domain.Coupon{
		Code:         strings.TrimSpace(in.Code),
		DiscountType: in.DiscountType,
		Amount:       in.Amount.Round(2),
		Active:       in.Active,
		ValidFrom:    in.ValidFrom,
		ValidTo:      in.ValidTo,
	}
}

// Lookup resolves a code case-insensitively.
func (s *Service) Lookup(ctx context.Context, code string) (domain.Coupon, error) {
	if strings.TrimSpace(code) == "" {
		return domain.Coupon{}, ErrNotFound
	}
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) List(ctx context.Context) ([]domain.Coupon, error) {
	return s.repo.List(ctx)
}

func (s *Service) Create(ctx context.Context, in CouponInput) (domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return domain.Coupon{}, err
	}

	c, err := s.repo.Create(ctx, in.toDomain())
	if err != nil {
		return domain.Coupon{}, err
	}

	s.fanOut(ctx, "sync", c, func(ctx context.Context, p Syncer) error {
		return p.SyncCoupon(ctx, c)
	})
	return c, nil
}

// Update replaces the coupon identified by in.Code. Providers get the old
// definition removed and the new one pushed.
func (s *Service) Update(ctx context.Context, in CouponInput) (domain.Coupon, error) {
	if err := in.validate(); err != nil {
		return domain.Coupon{}, err
	}

	c, err := s.repo.Update(ctx, in.toDomain())
	if err != nil {
		return domain.Coupon{}, err
	}

	s.fanOut(ctx, "resync", c, func(ctx context.Context, p Syncer) error {
		if err := p.RemoveCoupon(ctx, c); err != nil {
			return err
		}
		return p.SyncCoupon(ctx, c)
	})
	return c, nil
}

func (s *Service) Delete(ctx context.Context, code string) error {
	c, err := s.repo.Delete(ctx, code)
	if err != nil {
		return err
	}

	s.fanOut(ctx, "remove", c, func(ctx context.Context, p Syncer) error {
		return p.RemoveCoupon(ctx, c)
	})
	return nil
}

// fanOut runs op against every registered provider. Provider failures are
// logged; the local write has already succeeded.
func (s *Service) fanOut(ctx context.Context, action string, c domain.Coupon, op func(context.Context, Syncer) error) {
	if len(s.syncers) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(4)
	for _, p := range s.syncers {
		p := p
		g.Go(func() error {
			if err := op(ctx, p); err != nil {
				s.log.Warn("coupon provider sync failed",
					slog.String("provider", p.Name()),
					slog.String("action", action),
					slog.String("code", c.Code),
					slog.Any("err", err),
				)
				return fmt.Errorf("%s: %w", p.Name(), err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
