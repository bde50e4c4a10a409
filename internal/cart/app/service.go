package app

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/dwikikusuma/freshcart/internal/cart/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/google/uuid"
)

var (
	ErrItemNotFound    = apperr.NotFound("item is not in the cart")
	ErrInvalidQuantity = apperr.Validation("quantity must be at least 1")
	ErrInvalidProduct  = apperr.Validation("product_id must be a valid id")
	ErrInvalidUser     = apperr.Validation("invalid user id")
	ErrNoOpenCart      = apperr.InvalidState("no open cart")
)

type Service struct {
	repo     CartRepo
	products ProductReader
	coupons  CouponReader
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo CartRepo, products ProductReader, coupons CouponReader, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		coupons:  coupons,
		log:      log,
		now:      time.Now,
	}
}

func (s *Service) summarize(cart domain.Cart) domain.Summary {
	return cart.Summarize(s.now())
}

func (s *Service) GetOrCreateOpenCart(ctx context.Context, userID string) (domain.Cart, error) {
	return s.repo.GetOrCreateOpen(ctx, userID)
}

func (s *Service) GetCart(ctx context.Context, userID string) (domain.Summary, error) {
	cart, err := s.repo.GetOrCreateOpen(ctx, userID)
	if err != nil {
		return domain.Summary{}, err
	}
	return s.summarize(cart), nil
}

// writeAttempts bounds how often a cart write is replayed after a concurrent
// checkout closed the cart it was aimed at.
const writeAttempts = 3

// withOpenCart runs write against the user's open cart. Repository writes
// refuse carts that are no longer open with ErrNoOpenCart; the write is then
// replayed against the cart that replaced it.
func (s *Service) withOpenCart(ctx context.Context, userID string, write func(domain.Cart) error) error {
	var err error
	for attempt := 1; attempt <= writeAttempts; attempt++ {
		var cart domain.Cart
		cart, err = s.repo.GetOrCreateOpen(ctx, userID)
		if err != nil {
			return err
		}
		err = write(cart)
		if !errors.Is(err, ErrNoOpenCart) {
			return err
		}
		s.log.Info("cart closed during write, retrying",
			slog.String("cart_id", cart.ID), slog.Int("attempt", attempt))
	}
	return err
}

// productKey returns the canonical form of a product id so it compares equal
// to the ids stored on cart lines.
func productKey(productID string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(productID))
	if err != nil {
		return "", ErrInvalidProduct
	}
	return id.String(), nil
}

func (s *Service) AddItem(ctx context.Context, userID, productID string, quantity int32) (domain.Summary, error) {
	productID, err := productKey(productID)
	if err != nil {
		return domain.Summary{}, err
	}
	if quantity < 1 {
		return domain.Summary{}, ErrInvalidQuantity
	}

	if _, err := s.products.GetSellableProduct(ctx, productID); err != nil {
		return domain.Summary{}, err
	}

	err = s.withOpenCart(ctx, userID, func(cart domain.Cart) error {
		return s.repo.AddItem(ctx, cart.ID, productID, quantity)
	})
	if err != nil {
		return domain.Summary{}, err
	}

	return s.GetCart(ctx, userID)
}

// UpdateItem sets the quantity of an existing line; zero or less removes it.
func (s *Service) UpdateItem(ctx context.Context, userID, productID string, quantity int32) (domain.Summary, error) {
	productID, err := productKey(productID)
	if err != nil {
		return domain.Summary{}, err
	}

	err = s.withOpenCart(ctx, userID, func(cart domain.Cart) error {
		if _, ok := cart.Item(productID); !ok {
			return ErrItemNotFound
		}
		if quantity <= 0 {
			return s.repo.RemoveItem(ctx, cart.ID, productID)
		}
		found, err := s.repo.SetItemQuantity(ctx, cart.ID, productID, quantity)
		if err != nil {
			return err
		}
		if !found {
			return ErrItemNotFound
		}
		return nil
	})
	if err != nil {
		return domain.Summary{}, err
	}

	return s.GetCart(ctx, userID)
}

// RemoveItem is idempotent: removing a line that is not there succeeds.
func (s *Service) RemoveItem(ctx context.Context, userID, productID string) (domain.Summary, error) {
	productID, err := productKey(productID)
	if err != nil {
		return domain.Summary{}, err
	}

	cart, err := s.repo.GetOrCreateOpen(ctx, userID)
	if err != nil {
		return domain.Summary{}, err
	}

	if err := s.repo.RemoveItem(ctx, cart.ID, productID); err != nil {
		return domain.Summary{}, err
	}

	return s.GetCart(ctx, userID)
}

// ApplyCoupon attaches the coupon matching code when it is currently valid.
// An unknown or invalid code leaves the cart as it was without an error; the
// returned flag tells the caller whether the coupon was attached.
func (s *Service) ApplyCoupon(ctx context.Context, userID, code string) (domain.Summary, bool, error) {
	cart, err := s.repo.GetOrCreateOpen(ctx, userID)
	if err != nil {
		return domain.Summary{}, false, err
	}

	coupon, err := s.coupons.Lookup(ctx, code)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			s.log.Info("coupon not applied", slog.String("cart_id", cart.ID), slog.String("reason", "unknown code"))
			return s.summarize(cart), false, nil
		}
		return domain.Summary{}, false, err
	}

	if !coupon.IsValidAt(s.now()) {
		s.log.Info("coupon not applied", slog.String("cart_id", cart.ID), slog.String("reason", "not valid now"))
		return s.summarize(cart), false, nil
	}

	err = s.withOpenCart(ctx, userID, func(cart domain.Cart) error {
		return s.repo.SetCoupon(ctx, cart.ID, coupon.Code)
	})
	if err != nil {
		return domain.Summary{}, false, err
	}

	summary, err := s.GetCart(ctx, userID)
	if err != nil {
		return domain.Summary{}, false, err
	}
	return summary, true, nil
}

func (s *Service) RemoveCoupon(ctx context.Context, userID string) (domain.Summary, error) {
	err := s.withOpenCart(ctx, userID, func(cart domain.Cart) error {
		if cart.CouponCode == "" {
			return nil
		}
		return s.repo.SetCoupon(ctx, cart.ID, "")
	})
	if err != nil {
		return domain.Summary{}, err
	}
	return s.GetCart(ctx, userID)
}
