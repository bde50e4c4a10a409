// Package stripe adapts Stripe Checkout, webhooks and coupons to the payment
// and coupon services.
package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dwikikusuma/freshcart/internal/payment/app"
	"github.com/dwikikusuma/freshcart/internal/payment/domain"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

type Gateway struct {
	sc            *client.API
	webhookSecret string
	log           *slog.Logger
}

func NewClient(secretKey string) *client.API {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return sc
}

func NewGateway(sc *client.API, webhookSecret string, log *slog.Logger) *Gateway {
	return &Gateway{sc: sc, webhookSecret: webhookSecret, log: log}
}

// orderCouponID names the one-shot coupon that carries an order's captured
// discount.
func orderCouponID(orderID string) string { return "order-" + orderID }

func sessionParams(req domain.CheckoutRequest) *stripe.CheckoutSessionParams {
	items := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Lines))
	for _, l := range req.Lines {
		items = append(items, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(req.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(l.Name),
				},
				UnitAmount: stripe.Int64(l.UnitAmount),
			},
			Quantity: stripe.Int64(l.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems:         items,
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderID),
		Metadata: map[string]string{
			"order_id": req.OrderID,
			"user_id":  req.UserID,
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.DiscountAmount > 0 {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(orderCouponID(req.OrderID))},
		}
	}
	return params
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	if req.DiscountAmount > 0 {
		if err := g.ensureOrderCoupon(ctx, req); err != nil {
			return domain.CheckoutSession{}, err
		}
	}

	params := sessionParams(req)
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return domain.CheckoutSession{}, fmt.Errorf("create checkout session: %w", err)
	}
	return domain.CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// ensureOrderCoupon creates the fixed-amount coupon for the order, reusing it
// when a previous attempt already created it.
func (g *Gateway) ensureOrderCoupon(ctx context.Context, req domain.CheckoutRequest) error {
	params := &stripe.CouponParams{
		ID:             stripe.String(orderCouponID(req.OrderID)),
		Name:           stripe.String("Order discount"),
		AmountOff:      stripe.Int64(req.DiscountAmount),
		Currency:       stripe.String(req.Currency),
		Duration:       stripe.String(string(stripe.CouponDurationOnce)),
		MaxRedemptions: stripe.Int64(1),
	}
	params.Context = ctx

	_, err := g.sc.Coupons.New(params)
	if isCode(err, stripe.ErrorCodeResourceAlreadyExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create order coupon: %w", err)
	}
	return nil
}

func (g *Gateway) ParseEvent(payload []byte, signature string) (domain.Event, error) {
	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		g.log.Debug("webhook verification failed", slog.Any("err", err))
		return domain.Event{}, app.ErrInvalidSignature
	}

	out := domain.Event{
		ID:   ev.ID,
		Type: string(ev.Type),
		Raw:  json.RawMessage(payload),
	}
	if out.Type != domain.EventCheckoutCompleted || ev.Data == nil {
		return out, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(ev.Data.Raw, &session); err != nil {
		return domain.Event{}, app.ErrInvalidSignature
	}
	out.SessionID = session.ID
	out.Metadata = session.Metadata
	if session.PaymentIntent != nil {
		out.PaymentIntentID = session.PaymentIntent.ID
	}
	return out, nil
}

func isCode(err error, code stripe.ErrorCode) bool {
	var se *stripe.Error
	return errors.As(err, &se) && se.Code == code
}
