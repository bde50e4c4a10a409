package stripe

import (
	"encoding/json"
	"testing"
	"time"

	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
	"github.com/dwikikusuma/freshcart/internal/payment/app"
	"github.com/dwikikusuma/freshcart/internal/payment/domain"
	"github.com/dwikikusuma/freshcart/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81/webhook"
)

const testSecret = "whsec_test_secret"

func signed(t *testing.T, payload []byte) string {
	t.Helper()
	sp := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return sp.Header
}

func TestParseEventCheckoutCompleted(t *testing.T) {
	g := NewGateway(NewClient("sk_test_x"), testSecret, logger.Discard())
	payload := []byte(`{
		"id": "evt_123",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_test_1",
			"object": "checkout.session",
			"payment_intent": "pi_42",
			"metadata": {"order_id": "ord-1", "user_id": "u-1"}
		}}
	}`)

	ev, err := g.ParseEvent(payload, signed(t, payload))
	require.NoError(t, err)
	require.Equal(t, "evt_123", ev.ID)
	require.Equal(t, domain.EventCheckoutCompleted, ev.Type)
	require.Equal(t, "cs_test_1", ev.SessionID)
	require.Equal(t, "pi_42", ev.PaymentIntentID)
	require.Equal(t, "ord-1", ev.Metadata["order_id"])
	require.True(t, json.Valid(ev.Raw))
}

func TestParseEventRejectsBadSignature(t *testing.T) {
	g := NewGateway(NewClient("sk_test_x"), testSecret, logger.Discard())
	payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := g.ParseEvent(payload, "t=1,v1=deadbeef")
	require.ErrorIs(t, err, app.ErrInvalidSignature)

	other := NewGateway(NewClient("sk_test_x"), "whsec_other", logger.Discard())
	_, err = other.ParseEvent(payload, signed(t, payload))
	require.ErrorIs(t, err, app.ErrInvalidSignature)
}

func TestParseEventPassesOtherTypesThrough(t *testing.T) {
	g := NewGateway(NewClient("sk_test_x"), testSecret, logger.Discard())
	payload := []byte(`{"id":"evt_9","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1","object":"charge"}}}`)

	ev, err := g.ParseEvent(payload, signed(t, payload))
	require.NoError(t, err)
	require.Equal(t, "charge.refunded", ev.Type)
	require.Empty(t, ev.SessionID)
}

func TestSessionParams(t *testing.T) {
	p := sessionParams(domain.CheckoutRequest{
		OrderID:        "ord-1",
		UserID:         "u-1",
		CustomerEmail:  "buyer@example.com",
		Currency:       "usd",
		Lines:          []domain.CheckoutLine{{Name: "Mug", UnitAmount: 1250, Quantity: 2}},
		DiscountAmount: 300,
		SuccessURL:     "https://shop.example/ok",
		CancelURL:      "https://shop.example/no",
	})

	require.Equal(t, "payment", *p.Mode)
	require.Len(t, p.LineItems, 1)
	require.Equal(t, int64(1250), *p.LineItems[0].PriceData.UnitAmount)
	require.Equal(t, "Mug", *p.LineItems[0].PriceData.ProductData.Name)
	require.Equal(t, int64(2), *p.LineItems[0].Quantity)
	require.Equal(t, map[string]string{"order_id": "ord-1", "user_id": "u-1"}, p.Metadata)
	require.Equal(t, "buyer@example.com", *p.CustomerEmail)
	require.Len(t, p.Discounts, 1)
	require.Equal(t, "order-ord-1", *p.Discounts[0].Coupon)

	noDiscount := sessionParams(domain.CheckoutRequest{OrderID: "ord-2", Currency: "usd"})
	require.Empty(t, noDiscount.Discounts)
	require.Nil(t, noDiscount.CustomerEmail)
}

func TestCouponParams(t *testing.T) {
	s := NewCouponSyncer(NewClient("sk_test_x"), "EUR", logger.Discard())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	until := now.Add(48 * time.Hour)

	pct := s.couponParams(coupondomain.Coupon{
		ID: "c1", Code: "SPRING", DiscountType: coupondomain.DiscountPercent,
		Amount: decimal.RequireFromString("15"), Active: true, ValidTo: &until,
	})
	require.NotNil(t, pct)
	require.Equal(t, "c1", *pct.ID)
	require.Equal(t, 15.0, *pct.PercentOff)
	require.Nil(t, pct.AmountOff)
	require.Equal(t, until.Unix(), *pct.RedeemBy)

	amt := s.couponParams(coupondomain.Coupon{
		ID: "c2", Code: "FIVER", DiscountType: coupondomain.DiscountAmount,
		Amount: decimal.RequireFromString("5.50"), Active: true,
	})
	require.Equal(t, int64(550), *amt.AmountOff)
	require.Equal(t, "eur", *amt.Currency)

	inactive := s.couponParams(coupondomain.Coupon{ID: "c3", DiscountType: coupondomain.DiscountAmount, Amount: decimal.NewFromInt(1)})
	require.Nil(t, inactive)
}
