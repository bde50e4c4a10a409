package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/dwikikusuma/freshcart/internal/events"
	orderapp "github.com/dwikikusuma/freshcart/internal/order/app"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/dwikikusuma/freshcart/internal/payment/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/dwikikusuma/freshcart/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memDB struct {
	orders   map[string]orderdomain.Order
	payments map[string]domain.Payment
}

func (m *memDB) clone() *memDB {
	c := &memDB{orders: map[string]orderdomain.Order{}, payments: map[string]domain.Payment{}}
	for k, v := range m.orders {
		c.orders[k] = v
	}
	for k, v := range m.payments {
		c.payments[k] = v
	}
	return c
}

func (m *memDB) Get(_ context.Context, id string) (orderdomain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return orderdomain.Order{}, orderapp.ErrNotFound
	}
	return o, nil
}

func (m *memDB) LockForUpdate(ctx context.Context, id string) (orderdomain.Order, error) {
	return m.Get(ctx, id)
}

func (m *memDB) SetStripeSession(_ context.Context, id, sessionID string) error {
	o := m.orders[id]
	o.StripeSessionID = sessionID
	m.orders[id] = o
	return nil
}

func (m *memDB) TransitionStatus(_ context.Context, id string, from, to orderdomain.Status) (bool, error) {
	o := m.orders[id]
	if o.Status != from {
		return false, nil
	}
	o.Status = to
	m.orders[id] = o
	return true, nil
}

func (m *memDB) EnsureCreated(_ context.Context, orderID string, amount decimal.Decimal, currency string) error {
	p, ok := m.payments[orderID]
	if ok && p.Status != domain.StatusCreated {
		return nil
	}
	m.payments[orderID] = domain.Payment{OrderID: orderID, Amount: amount, Currency: currency, Status: domain.StatusCreated}
	return nil
}

func (m *memDB) MarkSucceeded(_ context.Context, p domain.Payment) error {
	m.payments[p.OrderID] = p
	return nil
}

type memUoW struct{ db *memDB }

func (u *memUoW) Do(_ context.Context, fn func(r Repos) error) error {
	snapshot := u.db.clone()
	if err := fn(Repos{Orders: u.db, Payments: u.db}); err != nil {
		*u.db = *snapshot
		return err
	}
	return nil
}

type fakeGateway struct {
	lastReq domain.CheckoutRequest
	events  map[string]domain.Event
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req domain.CheckoutRequest) (domain.CheckoutSession, error) {
	g.lastReq = req
	return domain.CheckoutSession{ID: "cs_" + req.OrderID, URL: "https://pay.example/" + req.OrderID}, nil
}

func (g *fakeGateway) ParseEvent(payload []byte, signature string) (domain.Event, error) {
	if signature != "good" {
		return domain.Event{}, errors.New("signature mismatch")
	}
	ev, ok := g.events[string(payload)]
	if !ok {
		return domain.Event{}, errors.New("malformed")
	}
	return ev, nil
}

type memFilter struct {
	seen map[string]bool
	err  error
}

func (f *memFilter) Seen(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.seen[id], nil
}

func (f *memFilter) MarkProcessed(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.seen[id] = true
	return nil
}

type countingPublisher struct{ paid int }

func (p *countingPublisher) Publish(_ context.Context, topic, _ string, _ any) error {
	if topic == events.TopicOrderPaid {
		p.paid++
	}
	return nil
}

type fixture struct {
	svc    *Service
	db     *memDB
	gw     *fakeGateway
	filter *memFilter
	pub    *countingPublisher
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	db := &memDB{
		orders: map[string]orderdomain.Order{
			"o1": {
				ID: "o1", UserID: "u1", Status: orderdomain.StatusPending,
				DiscountAmount: decimal.RequireFromString("2.50"),
				Items: []orderdomain.OrderItem{
					{ProductName: "Apple", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 2},
					{ProductName: "Fig", UnitPrice: decimal.RequireFromString("0.99"), Quantity: 1},
				},
			},
			"shipped": {ID: "shipped", UserID: "u1", Status: orderdomain.StatusShipped, StripeSessionID: "cs_shipped"},
		},
		payments: map[string]domain.Payment{},
	}
	gw := &fakeGateway{events: map[string]domain.Event{
		"completed": {ID: "evt_1", Type: domain.EventCheckoutCompleted, SessionID: "cs_o1", PaymentIntentID: "pi_1",
			Metadata: map[string]string{"order_id": "o1"}, Raw: json.RawMessage(`{"id":"evt_1"}`)},
		"replay": {ID: "evt_2", Type: domain.EventCheckoutCompleted, SessionID: "cs_o1", PaymentIntentID: "pi_1",
			Metadata: map[string]string{"order_id": "o1"}},
		"wrong-session": {ID: "evt_3", Type: domain.EventCheckoutCompleted, SessionID: "cs_other",
			Metadata: map[string]string{"order_id": "o1"}},
		"no-order": {ID: "evt_4", Type: domain.EventCheckoutCompleted, SessionID: "cs_o1"},
		"ghost-order": {ID: "evt_5", Type: domain.EventCheckoutCompleted, SessionID: "cs_o1",
			Metadata: map[string]string{"order_id": "nope"}},
		"shipped": {ID: "evt_6", Type: domain.EventCheckoutCompleted, SessionID: "cs_shipped",
			Metadata: map[string]string{"order_id": "shipped"}},
		"other-type": {ID: "evt_7", Type: "payment_intent.created"},
	}}
	filter := &memFilter{seen: map[string]bool{}}
	pub := &countingPublisher{}
	svc := NewService(db, &memUoW{db: db}, gw, filter, pub, logger.Discard(), Options{
		Currency: "USD", SuccessURL: "https://shop.example/ok", CancelURL: "https://shop.example/cancel",
	})
	return fixture{svc: svc, db: db, gw: gw, filter: filter, pub: pub}
}

func TestStartCheckout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.svc.StartCheckout(ctx, Identity{UserID: "u1", Email: "a@example.com"}, "o1")
	require.NoError(t, err)
	require.Equal(t, "cs_o1", s.ID)
	require.Equal(t, "cs_o1", f.db.orders["o1"].StripeSessionID)

	req := f.gw.lastReq
	require.Equal(t, "usd", req.Currency)
	require.Equal(t, int64(250), req.DiscountAmount)
	require.Equal(t, []domain.CheckoutLine{{Name: "Apple", UnitAmount: 1000, Quantity: 2}, {Name: "Fig", UnitAmount: 99, Quantity: 1}}, req.Lines)
	require.Equal(t, "a@example.com", req.CustomerEmail)

	p := f.db.payments["o1"]
	require.Equal(t, domain.StatusCreated, p.Status)
	require.True(t, p.Amount.Equal(decimal.RequireFromString("18.49")), "amount %s", p.Amount)

	_, err = f.svc.StartCheckout(ctx, Identity{UserID: "u2"}, "o1")
	require.ErrorIs(t, err, orderapp.ErrNotFound)

	_, err = f.svc.StartCheckout(ctx, Identity{UserID: "u1"}, "shipped")
	require.ErrorIs(t, err, ErrOrderNotPending)
}

func TestHandleWebhookMarksOrderPaidOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartCheckout(ctx, Identity{UserID: "u1"}, "o1")
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("completed"), "good"))
	require.Equal(t, orderdomain.StatusPaid, f.db.orders["o1"].Status)

	p := f.db.payments["o1"]
	require.Equal(t, domain.StatusSucceeded, p.Status)
	require.Equal(t, "pi_1", p.PaymentIntentID)
	require.JSONEq(t, `{"id":"evt_1"}`, string(p.RawResponse))
	require.True(t, f.filter.seen["evt_1"])

	// Same event again is short-circuited by the filter.
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("completed"), "good"))
	// A different delivery for the same session finds the order already paid.
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("replay"), "good"))

	require.Equal(t, 1, f.pub.paid)
	require.Len(t, f.db.payments, 1)
}

func TestHandleWebhookFailOpenFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.StartCheckout(ctx, Identity{UserID: "u1"}, "o1")
	require.NoError(t, err)

	f.filter.err = errors.New("redis down")
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("completed"), "good"))
	require.NoError(t, f.svc.HandleWebhook(ctx, []byte("completed"), "good"))
	require.Equal(t, orderdomain.StatusPaid, f.db.orders["o1"].Status)
	require.Equal(t, 1, f.pub.paid)
}

func TestHandleWebhookRejections(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		sig     string
		want    error
		kind    apperr.Kind
	}{
		{name: "bad signature", payload: "completed", sig: "forged", want: ErrInvalidSignature, kind: apperr.KindAuth},
		{name: "malformed payload", payload: "{", sig: "good", want: ErrInvalidSignature, kind: apperr.KindAuth},
		{name: "session mismatch", payload: "wrong-session", sig: "good", want: ErrSessionMismatch, kind: apperr.KindInvalidState},
		{name: "missing order id", payload: "no-order", sig: "good", want: orderapp.ErrNotFound, kind: apperr.KindNotFound},
		{name: "unknown order", payload: "ghost-order", sig: "good", want: orderapp.ErrNotFound, kind: apperr.KindNotFound},
		{name: "order not pending", payload: "shipped", sig: "good", want: ErrOrderNotPending, kind: apperr.KindInvalidState},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			_, err := f.svc.StartCheckout(ctx, Identity{UserID: "u1"}, "o1")
			require.NoError(t, err)

			err = f.svc.HandleWebhook(ctx, []byte(tc.payload), tc.sig)
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, tc.kind, apperr.KindOf(err))

			require.Equal(t, orderdomain.StatusPending, f.db.orders["o1"].Status)
			require.Equal(t, domain.StatusCreated, f.db.payments["o1"].Status)
			require.Zero(t, f.pub.paid)
			require.Empty(t, f.filter.seen)
		})
	}
}

func TestHandleWebhookLogsRejectedSignature(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	f.svc.log = slog.New(slog.NewJSONHandler(&buf, nil))

	err := f.svc.HandleWebhook(context.Background(), []byte("completed"), "forged")
	require.ErrorIs(t, err, ErrInvalidSignature)

	out := buf.String()
	require.Contains(t, out, `"level":"WARN"`)
	require.Contains(t, out, "webhook rejected")
	require.NotContains(t, out, "forged")
	require.NotContains(t, out, "completed")
}

func TestHandleWebhookIgnoresOtherEvents(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), []byte("other-type"), "good"))
	require.Equal(t, orderdomain.StatusPending, f.db.orders["o1"].Status)
}
