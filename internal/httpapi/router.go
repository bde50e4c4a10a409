package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	cartdomain "github.com/dwikikusuma/freshcart/internal/cart/domain"
	checkoutdomain "github.com/dwikikusuma/freshcart/internal/checkout/domain"
	couponapp "github.com/dwikikusuma/freshcart/internal/coupon/app"
	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	paymentapp "github.com/dwikikusuma/freshcart/internal/payment/app"
	paymentdomain "github.com/dwikikusuma/freshcart/internal/payment/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type CartService interface {
	GetCart(ctx context.Context, userID string) (cartdomain.Summary, error)
	AddItem(ctx context.Context, userID, productID string, quantity int32) (cartdomain.Summary, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int32) (cartdomain.Summary, error)
	RemoveItem(ctx context.Context, userID, productID string) (cartdomain.Summary, error)
	ApplyCoupon(ctx context.Context, userID, code string) (cartdomain.Summary, bool, error)
	RemoveCoupon(ctx context.Context, userID string) (cartdomain.Summary, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, userID string, addressID *string) (orderdomain.Order, error)
	Quote(ctx context.Context, userID string) (checkoutdomain.Quote, error)
}

type OrderService interface {
	ListOrders(ctx context.Context, userID string) ([]orderdomain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (orderdomain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to orderdomain.Status) (orderdomain.Order, error)
}

type PaymentService interface {
	StartCheckout(ctx context.Context, who paymentapp.Identity, orderID string) (paymentdomain.CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type CouponAdmin interface {
	List(ctx context.Context) ([]coupondomain.Coupon, error)
	Lookup(ctx context.Context, code string) (coupondomain.Coupon, error)
	Create(ctx context.Context, in couponapp.CouponInput) (coupondomain.Coupon, error)
	Update(ctx context.Context, in couponapp.CouponInput) (coupondomain.Coupon, error)
	Delete(ctx context.Context, code string) error
}

type Deps struct {
	Cart     CartService
	Checkout CheckoutService
	Orders   OrderService
	Payments PaymentService
	Coupons  CouponAdmin
	// Ready reports whether backing stores are reachable.
	Ready     func(ctx context.Context) error
	JWTSecret string
	Log       *slog.Logger
}

type Handler struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	h := &Handler{Deps: d}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)

	r.Route("/api", func(r chi.Router) {
		r.Post("/payments/stripe/webhook", h.stripeWebhook)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate([]byte(d.JWTSecret), d.Log))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.getCart)
				r.Post("/", h.addItem)
				r.Put("/", h.updateItem)
				r.Delete("/", h.removeItem)
				r.Post("/apply-coupon", h.applyCoupon)
				r.Delete("/coupon", h.removeCoupon)
			})

			r.Get("/checkout/quote", h.quote)

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.checkout)
				r.Get("/", h.listOrders)
				r.Get("/{id}", h.getOrder)
				r.Post("/{id}/pay/stripe", h.payStripe)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin(d.Log))
				r.Get("/coupons", h.listCoupons)
				r.Post("/coupons", h.createCoupon)
				r.Get("/coupons/{code}", h.getCoupon)
				r.Put("/coupons/{code}", h.updateCoupon)
				r.Delete("/coupons/{code}", h.deleteCoupon)
				r.Post("/orders/{id}/status", h.updateOrderStatus)
			})
		})
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			h.Log.Warn("readiness check failed", slog.Any("err", err))
			writeJSON(w, http.StatusServiceUnavailable, errorBody{Code: "UNAVAILABLE", Message: "not ready"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
