package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	addressapp "github.com/dwikikusuma/freshcart/internal/address/app"
	addressdomain "github.com/dwikikusuma/freshcart/internal/address/domain"
	cartapp "github.com/dwikikusuma/freshcart/internal/cart/app"
	cartdomain "github.com/dwikikusuma/freshcart/internal/cart/domain"
	catalogdomain "github.com/dwikikusuma/freshcart/internal/catalog/domain"
	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
	"github.com/dwikikusuma/freshcart/internal/events"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/dwikikusuma/freshcart/pkg/apperr"
	"github.com/dwikikusuma/freshcart/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// store is an in-memory database; memUoW snapshots it before each unit of
// work and restores the snapshot when the work fails.
type store struct {
	carts     map[string]cartdomain.Cart
	orders    []orderdomain.Order
	addresses map[string]addressdomain.Address
	products  map[string]catalogdomain.Product
	failOrder bool
}

func (s *store) clone() *store {
	c := *s
	c.carts = make(map[string]cartdomain.Cart, len(s.carts))
	for k, v := range s.carts {
		v.Items = append([]cartdomain.CartItem(nil), v.Items...)
		c.carts[k] = v
	}
	c.orders = append([]orderdomain.Order(nil), s.orders...)
	return &c
}

type memUoW struct{ db *store }

func (u *memUoW) Do(_ context.Context, fn func(r Repos) error) error {
	snapshot := u.db.clone()
	err := fn(Repos{
		Carts:     memCarts{u.db},
		Orders:    memOrders{u.db},
		Addresses: addressapp.NewResolver(memAddresses{u.db}),
	})
	if err != nil {
		*u.db = *snapshot
	}
	return err
}

type memCarts struct{ db *store }

func (m memCarts) LockOpen(_ context.Context, userID string) (cartdomain.Cart, error) {
	c, ok := m.db.carts[userID]
	if !ok || c.Status != cartdomain.StatusOpen {
		return cartdomain.Cart{}, cartapp.ErrNoOpenCart
	}
	return c, nil
}

func (m memCarts) MarkCheckedOut(_ context.Context, cartID string) error {
	for k, c := range m.db.carts {
		if c.ID == cartID && c.Status == cartdomain.StatusOpen {
			c.Status, c.Items, c.CouponCode, c.Coupon = cartdomain.StatusCheckedOut, nil, "", nil
			m.db.carts[k] = c
			return nil
		}
	}
	return cartapp.ErrNoOpenCart
}

type memOrders struct{ db *store }

func (m memOrders) Create(_ context.Context, o orderdomain.Order) (orderdomain.Order, error) {
	if m.db.failOrder {
		return orderdomain.Order{}, errors.New("insert failed")
	}
	o.ID = fmt.Sprintf("order-%d", len(m.db.orders)+1)
	m.db.orders = append(m.db.orders, o)
	return o, nil
}

type memAddresses struct{ db *store }

func (m memAddresses) Get(_ context.Context, id string) (addressdomain.Address, error) {
	a, ok := m.db.addresses[id]
	if !ok {
		return addressdomain.Address{}, addressapp.ErrNotFound
	}
	return a, nil
}

func (m memAddresses) GetDefault(_ context.Context, userID string) (addressdomain.Address, error) {
	for _, a := range m.db.addresses {
		if a.UserID == userID && a.IsDefault {
			return a, nil
		}
	}
	return addressdomain.Address{}, addressapp.ErrNotFound
}

type readers struct{ db *store }

func (m readers) GetCart(_ context.Context, userID string) (cartdomain.Summary, error) {
	return m.db.carts[userID].Summarize(time.Now()), nil
}

func (m readers) GetSellableProduct(_ context.Context, id string) (catalogdomain.Product, error) {
	p, ok := m.db.products[id]
	if !ok || !p.IsActive {
		return catalogdomain.Product{}, apperr.NotFound("product not found")
	}
	return p, nil
}

type recordingPublisher struct{ events []events.OrderEvent }

func (p *recordingPublisher) Publish(_ context.Context, _, _ string, payload any) error {
	p.events = append(p.events, payload.(events.OrderEvent))
	return nil
}

func newFixture(t *testing.T) (*Service, *store, *recordingPublisher) {
	t.Helper()
	db := &store{
		carts: map[string]cartdomain.Cart{
			"u1": {
				ID: "cart-1", UserID: "u1", Status: cartdomain.StatusOpen, CouponCode: "SAVE10",
				Coupon: &coupondomain.Coupon{Code: "SAVE10", DiscountType: coupondomain.DiscountPercent, Amount: decimal.NewFromInt(10), Active: true},
				Items: []cartdomain.CartItem{
					{ProductID: "apple", ProductName: "Apple", UnitPrice: decimal.RequireFromString("10.00"), Quantity: 3},
					{ProductID: "pear", ProductName: "Pear", UnitPrice: decimal.RequireFromString("2.50"), Quantity: 2},
				},
			},
			"u-empty": {ID: "cart-2", UserID: "u-empty", Status: cartdomain.StatusOpen},
		},
		addresses: map[string]addressdomain.Address{
			"home":  {ID: "home", UserID: "u1", IsDefault: true},
			"other": {ID: "other", UserID: "u2"},
		},
		products: map[string]catalogdomain.Product{
			"apple": {ID: "apple", IsActive: true},
			"pear":  {ID: "pear", IsActive: false},
		},
	}
	pub := &recordingPublisher{}
	r := readers{db}
	return NewService(&memUoW{db: db}, r, r, pub, logger.Discard()), db, pub
}

func TestCheckoutCreatesOrderAndClosesCart(t *testing.T) {
	svc, db, pub := newFixture(t)

	o, err := svc.Checkout(context.Background(), "u1", nil)
	require.NoError(t, err)

	require.Equal(t, orderdomain.StatusPending, o.Status)
	require.Equal(t, "home", o.AddressID)
	require.Equal(t, "SAVE10", o.CouponCode)
	require.True(t, o.DiscountAmount.Equal(decimal.RequireFromString("3.50")), "discount %s", o.DiscountAmount)
	require.True(t, o.Total().Equal(decimal.RequireFromString("31.50")), "total %s", o.Total())
	require.Len(t, o.Items, 2)
	require.Equal(t, "Apple", o.Items[0].ProductName)

	cart := db.carts["u1"]
	require.Equal(t, cartdomain.StatusCheckedOut, cart.Status)
	require.Empty(t, cart.Items)
	require.Empty(t, cart.CouponCode)

	require.Len(t, pub.events, 1)
	require.Equal(t, events.TopicOrderCreated, pub.events[0].EventType)
	require.Equal(t, "31.50", pub.events[0].Total)
}

func TestCheckoutTwiceFails(t *testing.T) {
	svc, db, _ := newFixture(t)
	ctx := context.Background()

	_, err := svc.Checkout(ctx, "u1", nil)
	require.NoError(t, err)

	_, err = svc.Checkout(ctx, "u1", nil)
	require.ErrorIs(t, err, cartapp.ErrNoOpenCart)
	require.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	require.Len(t, db.orders, 1)
}

func TestCheckoutRollsBackOnFailure(t *testing.T) {
	cases := []struct {
		name      string
		userID    string
		addressID *string
		failOrder bool
		wantErr   error
	}{
		{name: "foreign address", userID: "u1", addressID: strp("other"), wantErr: addressapp.ErrNotOwned},
		{name: "unknown address", userID: "u1", addressID: strp("nowhere"), wantErr: addressapp.ErrNotOwned},
		{name: "order insert fails", userID: "u1", failOrder: true},
		{name: "empty cart", userID: "u-empty", wantErr: ErrEmptyCart},
		{name: "no cart", userID: "u-none", wantErr: cartapp.ErrNoOpenCart},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, db, pub := newFixture(t)
			db.failOrder = tc.failOrder

			_, err := svc.Checkout(context.Background(), tc.userID, tc.addressID)
			require.Error(t, err)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			}

			require.Empty(t, db.orders)
			require.Empty(t, pub.events)
			if c, ok := db.carts[tc.userID]; ok {
				require.Equal(t, cartdomain.StatusOpen, c.Status)
			}
		})
	}
}

func TestQuoteFlagsRetiredProducts(t *testing.T) {
	svc, _, _ := newFixture(t)

	q, err := svc.Quote(context.Background(), "u1")
	require.NoError(t, err)

	require.Len(t, q.Lines, 2)
	require.True(t, q.Lines[0].Available)
	require.False(t, q.Lines[1].Available)
	require.False(t, q.Ready)
	require.Equal(t, "SAVE10", q.CouponCode)
	require.True(t, q.Total.Equal(decimal.RequireFromString("31.50")))

	empty, err := svc.Quote(context.Background(), "u-empty")
	require.NoError(t, err)
	require.False(t, empty.Ready)
}

func strp(s string) *string { return &s }
