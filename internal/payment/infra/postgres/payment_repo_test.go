package postgres_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"

	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	orderpg "github.com/dwikikusuma/freshcart/internal/order/infra/postgres"
	"github.com/dwikikusuma/freshcart/internal/payment/domain"
	paymentpg "github.com/dwikikusuma/freshcart/internal/payment/infra/postgres"
	"github.com/dwikikusuma/freshcart/pkg/postgres/pgtest"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func paymentByOrder(ctx context.Context, db *sql.DB, orderID string) (domain.Payment, error) {
	var (
		p      domain.Payment
		status string
		raw    []byte
	)
	err := db.QueryRowContext(ctx, `
		SELECT id, order_id, provider, amount, currency, status, payment_intent_id, raw_response
		FROM payments WHERE order_id = $1`, orderID,
	).Scan(&p.ID, &p.OrderID, &p.Provider, &p.Amount, &p.Currency, &status, &p.PaymentIntentID, &raw)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("payment for %s: %w", orderID, err)
	}
	p.Status = domain.Status(status)
	p.RawResponse = raw
	return p, nil
}

func TestPaymentLifecycle(t *testing.T) {
	db := pgtest.Open(t)
	ctx := context.Background()

	userID := uuid.NewString()
	productID := pgtest.InsertProduct(t, db, "Payment Lamp", "40.00")
	addrID := pgtest.InsertAddress(t, db, userID, true)

	order, err := orderpg.NewOrderRepo(db).Create(ctx, orderdomain.Order{
		UserID:    userID,
		AddressID: addrID,
		Items: []orderdomain.OrderItem{
			{ProductID: productID, ProductName: "Payment Lamp", UnitPrice: decimal.RequireFromString("40.00"), Quantity: 1},
		},
	})
	require.NoError(t, err)

	repo := paymentpg.NewPaymentRepo(db)

	_, err = paymentByOrder(ctx, db, order.ID)
	require.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.EnsureCreated(ctx, order.ID, decimal.RequireFromString("40.00"), "usd"))
	require.NoError(t, repo.EnsureCreated(ctx, order.ID, decimal.RequireFromString("35.00"), "usd"))

	p, err := paymentByOrder(ctx, db, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusCreated, p.Status)
	require.Equal(t, "35.00", p.Amount.StringFixed(2))

	require.NoError(t, repo.MarkSucceeded(ctx, domain.Payment{
		OrderID:         order.ID,
		Provider:        domain.ProviderStripe,
		Amount:          decimal.RequireFromString("35.00"),
		Currency:        "usd",
		Status:          domain.StatusSucceeded,
		PaymentIntentID: "pi_123",
		RawResponse:     json.RawMessage(`{"id":"evt_1"}`),
	}))

	// A late refresh must not downgrade a settled payment.
	require.NoError(t, repo.EnsureCreated(ctx, order.ID, decimal.RequireFromString("1.00"), "usd"))

	p, err = paymentByOrder(ctx, db, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusSucceeded, p.Status)
	require.Equal(t, "pi_123", p.PaymentIntentID)
	require.Equal(t, "35.00", p.Amount.StringFixed(2))
	require.JSONEq(t, `{"id":"evt_1"}`, string(p.RawResponse))
}
