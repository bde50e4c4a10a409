// Package events carries order lifecycle notifications to downstream
// consumers. Publishing happens after the owning transaction commits and is
// best effort: a failed publish is logged, never rolled back.
package events

import (
	"context"
	"log/slog"
	"time"
)

const (
	TopicOrderCreated       = "order.created"
	TopicOrderPaid          = "order.paid"
	TopicOrderStatusChanged = "order.status_changed"
)

type OrderEvent struct {
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	UserID     string    `json:"user_id"`
	Status     string    `json:"status"`
	Total      string    `json:"total"`
	CouponCode string    `json:"coupon_code,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, payload any) error
}

type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }

// PublishOrder sends ev on its topic keyed by order id and logs failures.
func PublishOrder(ctx context.Context, pub Publisher, log *slog.Logger, ev OrderEvent) {
	if pub == nil {
		return
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	if err := pub.Publish(ctx, ev.EventType, ev.OrderID, ev); err != nil {
		log.Warn("publish order event failed",
			slog.String("topic", ev.EventType),
			slog.String("order_id", ev.OrderID),
			slog.Any("err", err),
		)
	}
}
