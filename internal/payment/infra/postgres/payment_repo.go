package postgres

import (
	"context"
	"fmt"

	"github.com/dwikikusuma/freshcart/internal/payment/domain"
	"github.com/dwikikusuma/freshcart/pkg/postgres"
	"github.com/shopspring/decimal"
)

type PaymentRepo struct {
	db postgres.DBTX
}

func NewPaymentRepo(db postgres.DBTX) *PaymentRepo {
	return &PaymentRepo{db: db}
}

func (r *PaymentRepo) EnsureCreated(ctx context.Context, orderID string, amount decimal.Decimal, currency string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (order_id, provider, amount, currency, status)
		VALUES ($1, $2, $3, $4, 'created')
		ON CONFLICT (order_id) DO UPDATE
		SET amount = EXCLUDED.amount, currency = EXCLUDED.currency, updated_at = now()
		WHERE payments.status = 'created'`,
		orderID, domain.ProviderStripe, amount, currency,
	)
	if err != nil {
		return fmt.Errorf("ensure payment: %w", err)
	}
	return nil
}

func (r *PaymentRepo) MarkSucceeded(ctx context.Context, p domain.Payment) error {
	raw := []byte(p.RawResponse)
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (order_id, provider, amount, currency, status, payment_intent_id, raw_response)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status,
		    payment_intent_id = EXCLUDED.payment_intent_id,
		    raw_response = EXCLUDED.raw_response,
		    updated_at = now()`,
		p.OrderID, p.Provider, p.Amount, p.Currency, string(p.Status), p.PaymentIntentID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("mark payment succeeded: %w", err)
	}
	return nil
}
