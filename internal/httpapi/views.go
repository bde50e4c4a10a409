package httpapi

import (
	"time"

	cartdomain "github.com/dwikikusuma/freshcart/internal/cart/domain"
	checkoutdomain "github.com/dwikikusuma/freshcart/internal/checkout/domain"
	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/shopspring/decimal"
)

func money(d decimal.Decimal) string { return d.StringFixed(2) }

type cartItemView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int32  `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

type cartView struct {
	ID            string         `json:"id"`
	Status        string         `json:"status"`
	Coupon        *string        `json:"coupon"`
	CouponActive  bool           `json:"coupon_active"`
	CouponApplied *bool          `json:"coupon_applied,omitempty"`
	Items         []cartItemView `json:"items"`
	Subtotal      string         `json:"subtotal"`
	Discount      string         `json:"discount"`
	Total         string         `json:"total"`
}

func newCartView(s cartdomain.Summary) cartView {
	v := cartView{
		ID:           s.Cart.ID,
		Status:       string(s.Cart.Status),
		CouponActive: s.CouponActive,
		Items:        make([]cartItemView, 0, len(s.Cart.Items)),
		Subtotal:     money(s.Subtotal),
		Discount:     money(s.Discount),
		Total:        money(s.Total),
	}
	if s.Cart.CouponCode != "" {
		code := s.Cart.CouponCode
		v.Coupon = &code
	}
	for _, it := range s.Cart.Items {
		v.Items = append(v.Items, cartItemView{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   money(it.UnitPrice),
			Quantity:    it.Quantity,
			LineTotal:   money(it.LineTotal()),
		})
	}
	return v
}

type orderItemView struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int32  `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

type orderView struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	AddressID      string          `json:"address_id"`
	CouponCode     *string         `json:"coupon_code"`
	Subtotal       string          `json:"subtotal"`
	DiscountAmount string          `json:"discount_amount"`
	TotalAmount    string          `json:"total_amount"`
	Items          []orderItemView `json:"items"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newOrderView(o orderdomain.Order) orderView {
	v := orderView{
		ID:             o.ID,
		Status:         string(o.Status),
		AddressID:      o.AddressID,
		Subtotal:       money(o.Subtotal()),
		DiscountAmount: money(o.DiscountAmount),
		TotalAmount:    money(o.Total()),
		Items:          make([]orderItemView, 0, len(o.Items)),
		CreatedAt:      o.CreatedAt,
	}
	if o.CouponCode != "" {
		code := o.CouponCode
		v.CouponCode = &code
	}
	for _, it := range o.Items {
		v.Items = append(v.Items, orderItemView{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			UnitPrice:   money(it.UnitPrice),
			Quantity:    it.Quantity,
			LineTotal:   money(it.LineTotal()),
		})
	}
	return v
}

type quoteLineView struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int32  `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
	Available bool   `json:"available"`
}

type quoteView struct {
	Lines      []quoteLineView `json:"lines"`
	CouponCode *string         `json:"coupon_code"`
	Subtotal   string          `json:"subtotal"`
	Discount   string          `json:"discount"`
	Total      string          `json:"total"`
	Ready      bool            `json:"ready"`
}

func newQuoteView(q checkoutdomain.Quote) quoteView {
	v := quoteView{
		Lines:    make([]quoteLineView, 0, len(q.Lines)),
		Subtotal: money(q.Subtotal),
		Discount: money(q.Discount),
		Total:    money(q.Total),
		Ready:    q.Ready,
	}
	if q.CouponCode != "" {
		code := q.CouponCode
		v.CouponCode = &code
	}
	for _, l := range q.Lines {
		v.Lines = append(v.Lines, quoteLineView{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: money(l.UnitPrice),
			LineTotal: money(l.LineTotal),
			Available: l.Available,
		})
	}
	return v
}

type couponView struct {
	ID           string     `json:"id"`
	Code         string     `json:"code"`
	DiscountType string     `json:"discount_type"`
	Amount       string     `json:"amount"`
	Active       bool       `json:"active"`
	ValidFrom    *time.Time `json:"valid_from"`
	ValidTo      *time.Time `json:"valid_to"`
}

func newCouponView(c coupondomain.Coupon) couponView {
	return couponView{
		ID:           c.ID,
		Code:         c.Code,
		DiscountType: string(c.DiscountType),
		Amount:       money(c.Amount),
		Active:       c.Active,
		ValidFrom:    c.ValidFrom,
		ValidTo:      c.ValidTo,
	}
}
