package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dwikikusuma/freshcart/internal/checkout/domain"
	"github.com/dwikikusuma/freshcart/internal/events"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var ErrEmptyCart = apperr.InvalidState("cart is empty")

type Service struct {
	uow     UnitOfWork
	cart    CartReader
	catalog CatalogReader
	pub     events.Publisher
	log     *slog.Logger
	now     func() time.Time

	maxConcurrent int
}

func NewService(uow UnitOfWork, cart CartReader, catalog CatalogReader, pub events.Publisher, log *slog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{
		uow:           uow,
		cart:          cart,
		catalog:       catalog,
		pub:           pub,
		log:           log,
		now:           time.Now,
		maxConcurrent: 10,
	}
}

// Checkout turns the user's open cart into a pending order. The cart row is
// locked for the whole transaction, so a concurrent second checkout waits and
// then finds no open cart.
func (s *Service) Checkout(ctx context.Context, userID string, addressID *string) (orderdomain.Order, error) {
	now := s.now()

	var created orderdomain.Order
	err := s.uow.Do(ctx, func(r Repos) error {
		cart, err := r.Carts.LockOpen(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		addr, err := r.Addresses.Resolve(ctx, userID, addressID)
		if err != nil {
			return err
		}

		discount := cart.Discount(now)
		couponCode := ""
		if cart.Coupon != nil && cart.Coupon.IsValidAt(now) {
			couponCode = cart.Coupon.Code
		}

		items := make([]orderdomain.OrderItem, 0, len(cart.Items))
		for _, it := range cart.Items {
			items = append(items, orderdomain.OrderItem{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				UnitPrice:   it.UnitPrice,
				Quantity:    it.Quantity,
			})
		}

		created, err = r.Orders.Create(ctx, orderdomain.Order{
			UserID:         userID,
			AddressID:      addr.ID,
			Status:         orderdomain.StatusPending,
			CouponCode:     couponCode,
			DiscountAmount: discount,
			Items:          items,
		})
		if err != nil {
			return err
		}

		return r.Carts.MarkCheckedOut(ctx, cart.ID)
	})
	if err != nil {
		return orderdomain.Order{}, err
	}

	s.log.Info("order placed",
		slog.String("order_id", created.ID),
		slog.String("user_id", userID),
		slog.String("total", created.Total().StringFixed(2)),
	)

	events.PublishOrder(ctx, s.pub, s.log, events.OrderEvent{
		EventType:  events.TopicOrderCreated,
		OrderID:    created.ID,
		UserID:     created.UserID,
		Status:     string(created.Status),
		Total:      created.Total().StringFixed(2),
		CouponCode: created.CouponCode,
	})
	return created, nil
}

// Quote re-checks every cart line against the catalog and prices the cart
// as Checkout would, without locking or writing.
func (s *Service) Quote(ctx context.Context, userID string) (domain.Quote, error) {
	summary, err := s.cart.GetCart(ctx, userID)
	if err != nil {
		return domain.Quote{}, err
	}

	items := summary.Cart.Items
	lines := make([]domain.QuoteLine, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for idx := range items {
		idx := idx
		g.Go(func() error {
			it := items[idx]
			line := domain.QuoteLine{
				ProductID: it.ProductID,
				Name:      it.ProductName,
				Quantity:  it.Quantity,
				UnitPrice: it.UnitPrice,
				LineTotal: it.LineTotal(),
			}

			_, err := s.catalog.GetSellableProduct(gctx, it.ProductID)
			switch {
			case err == nil:
				line.Available = true
			case apperr.IsKind(err, apperr.KindNotFound):
				line.Available = false
			default:
				return err
			}

			lines[idx] = line
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Quote{}, err
	}

	ready := len(lines) > 0
	for _, l := range lines {
		ready = ready && l.Available
	}

	q := domain.Quote{
		Lines:    lines,
		Subtotal: summary.Subtotal,
		Discount: summary.Discount,
		Total:    decimal.Max(summary.Total, decimal.Zero),
		Ready:    ready,
	}
	if summary.CouponActive {
		q.CouponCode = summary.Cart.CouponCode
	}
	return q, nil
}
