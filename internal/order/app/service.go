package app

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dwikikusuma/freshcart/internal/events"
	"github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
)

var (
	ErrNotFound      = apperr.NotFound("order not found")
	ErrInvalidStatus = apperr.Validation("unknown order status")
	ErrStatusChanged = apperr.InvalidState("order status changed concurrently")
)

type Service struct {
	repo OrderRepo
	pub  events.Publisher
	log  *slog.Logger
}

func NewService(repo OrderRepo, pub events.Publisher, log *slog.Logger) *Service {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Service{repo: repo, pub: pub, log: log}
}

// ListOrders returns the user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

// GetOrder hides orders owned by someone else behind ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error) {
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if !o.IsOwnedBy(userID) {
		return domain.Order{}, ErrNotFound
	}
	return o, nil
}

// UpdateStatus is the fulfilment path: it applies one move from the
// transition table and fails if the order moved in between.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.Status) (domain.Order, error) {
	to = domain.Status(strings.ToLower(strings.TrimSpace(string(to))))
	if !to.Valid() {
		return domain.Order{}, ErrInvalidStatus
	}

	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}

	from := o.Status
	if !from.CanTransitionTo(to) {
		return domain.Order{}, apperr.InvalidState("cannot move order from %s to %s", from, to)
	}

	ok, err := s.repo.TransitionStatus(ctx, orderID, from, to)
	if err != nil {
		return domain.Order{}, err
	}
	if !ok {
		return domain.Order{}, ErrStatusChanged
	}
	o.Status = to

	s.log.Info("order status updated",
		slog.String("order_id", orderID),
		slog.String("from", string(from)),
		slog.String("to", string(to)),
	)

	events.PublishOrder(ctx, s.pub, s.log, events.OrderEvent{
		EventType:  events.TopicOrderStatusChanged,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     string(to),
		Total:      o.Total().StringFixed(2),
		CouponCode: o.CouponCode,
	})
	return o, nil
}
