package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dwikikusuma/freshcart/internal/events"
	orderapp "github.com/dwikikusuma/freshcart/internal/order/app"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/dwikikusuma/freshcart/internal/payment/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
)

var (
	ErrInvalidSignature = apperr.Auth("invalid webhook signature")
	ErrOrderNotPending  = apperr.InvalidState("order is not pending")
	ErrSessionMismatch  = apperr.InvalidState("checkout session does not match order")
)

// Identity is the authenticated caller starting a payment.
type Identity struct {
	UserID string
	Email  string
}

type Options struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

type Service struct {
	orders  OrderReader
	uow     UnitOfWork
	gateway Gateway
	filter  EventFilter
	pub     events.Publisher
	log     *slog.Logger
	opts    Options
}

func NewService(orders OrderReader, uow UnitOfWork, gateway Gateway, filter EventFilter, pub events.Publisher, log *slog.Logger, opts Options) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	opts.Currency = strings.ToLower(opts.Currency)
	return &Service{
		orders:  orders,
		uow:     uow,
		gateway: gateway,
		filter:  filter,
		pub:     pub,
		log:     log,
		opts:    opts,
	}
}

// StartCheckout opens a hosted checkout session for a pending order owned by
// the caller and records the session on the order.
func (s *Service) StartCheckout(ctx context.Context, who Identity, orderID string) (domain.CheckoutSession, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return domain.CheckoutSession{}, err
	}
	if !o.IsOwnedBy(who.UserID) {
		return domain.CheckoutSession{}, orderapp.ErrNotFound
	}
	if o.Status != orderdomain.StatusPending {
		return domain.CheckoutSession{}, ErrOrderNotPending
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, s.checkoutRequest(o, who))
	if err != nil {
		return domain.CheckoutSession{}, err
	}

	err = s.uow.Do(ctx, func(r Repos) error {
		locked, err := r.Orders.LockForUpdate(ctx, o.ID)
		if err != nil {
			return err
		}
		if locked.Status != orderdomain.StatusPending {
			return ErrOrderNotPending
		}
		if err := r.Orders.SetStripeSession(ctx, o.ID, session.ID); err != nil {
			return err
		}
		return r.Payments.EnsureCreated(ctx, o.ID, locked.Total(), s.opts.Currency)
	})
	if err != nil {
		return domain.CheckoutSession{}, err
	}

	s.log.Info("checkout session started",
		slog.String("order_id", o.ID),
		slog.String("session_id", session.ID),
	)
	return session, nil
}

func (s *Service) checkoutRequest(o orderdomain.Order, who Identity) domain.CheckoutRequest {
	lines := make([]domain.CheckoutLine, 0, len(o.Items))
	for _, it := range o.Items {
		lines = append(lines, domain.CheckoutLine{
			Name:       it.ProductName,
			UnitAmount: domain.MinorUnits(it.UnitPrice),
			Quantity:   int64(it.Quantity),
		})
	}
	return domain.CheckoutRequest{
		OrderID:        o.ID,
		UserID:         o.UserID,
		CustomerEmail:  who.Email,
		Currency:       s.opts.Currency,
		Lines:          lines,
		DiscountAmount: domain.MinorUnits(o.DiscountAmount),
		SuccessURL:     s.opts.SuccessURL,
		CancelURL:      s.opts.CancelURL,
	}
}

// HandleWebhook reconciles a signed gateway event. Replays of an already
// applied event succeed without side effects.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseEvent(payload, signature)
	if err != nil {
		s.log.Warn("webhook rejected", slog.String("reason", "signature verification failed"))
		return ErrInvalidSignature
	}

	log := s.log.With(slog.String("event_id", ev.ID), slog.String("event_type", ev.Type))

	if ev.Type != domain.EventCheckoutCompleted {
		log.Debug("webhook event ignored")
		return nil
	}

	if s.filter != nil {
		seen, err := s.filter.Seen(ctx, ev.ID)
		if err != nil {
			log.Warn("event filter unavailable", slog.Any("err", err))
		} else if seen {
			log.Info("webhook event already processed")
			return nil
		}
	}

	orderID := strings.TrimSpace(ev.Metadata["order_id"])
	if orderID == "" {
		return orderapp.ErrNotFound
	}

	var (
		paid        orderdomain.Order
		alreadyPaid bool
	)
	err = s.uow.Do(ctx, func(r Repos) error {
		o, err := r.Orders.LockForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.StripeSessionID != ev.SessionID {
			return ErrSessionMismatch
		}
		if o.Status == orderdomain.StatusPaid {
			alreadyPaid = true
			return nil
		}
		if o.Status != orderdomain.StatusPending {
			return ErrOrderNotPending
		}

		ok, err := r.Orders.TransitionStatus(ctx, o.ID, orderdomain.StatusPending, orderdomain.StatusPaid)
		if err != nil {
			return err
		}
		if !ok {
			return ErrOrderNotPending
		}

		o.Status = orderdomain.StatusPaid
		paid = o
		return r.Payments.MarkSucceeded(ctx, domain.Payment{
			OrderID:         o.ID,
			Provider:        domain.ProviderStripe,
			Amount:          o.Total(),
			Currency:        s.opts.Currency,
			Status:          domain.StatusSucceeded,
			PaymentIntentID: ev.PaymentIntentID,
			RawResponse:     ev.Raw,
		})
	})
	if err != nil {
		log.Warn("webhook rejected", slog.String("order_id", orderID), slog.Any("err", err))
		return err
	}

	if alreadyPaid {
		log.Info("order already paid", slog.String("order_id", orderID))
	} else {
		log.Info("order paid", slog.String("order_id", orderID))
		events.PublishOrder(ctx, s.pub, s.log, events.OrderEvent{
			EventType:  events.TopicOrderPaid,
			OrderID:    paid.ID,
			UserID:     paid.UserID,
			Status:     string(paid.Status),
			Total:      paid.Total().StringFixed(2),
			CouponCode: paid.CouponCode,
		})
	}

	if s.filter != nil {
		if err := s.filter.MarkProcessed(ctx, ev.ID); err != nil {
			log.Warn("record processed event failed", slog.Any("err", err))
		}
	}
	return nil
}
