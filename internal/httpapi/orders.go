package httpapi

import (
	"net/http"

	paymentapp "github.com/dwikikusuma/freshcart/internal/payment/app"
	"github.com/go-chi/chi/v5"
)

type checkoutRequest struct {
	AddressID *string `json:"address_id"`
}

type stripeCheckoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	o, err := h.Checkout.Checkout(r.Context(), identityFrom(r.Context()).UserID, trimmed(req.AddressID))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newOrderView(o))
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	q, err := h.Checkout.Quote(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteView(q))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.ListOrders(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, newOrderView(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Orders.GetOrder(r.Context(), identityFrom(r.Context()).UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o))
}

func (h *Handler) payStripe(w http.ResponseWriter, r *http.Request) {
	who := identityFrom(r.Context())
	s, err := h.Payments.StartCheckout(r.Context(), paymentapp.Identity{UserID: who.UserID, Email: who.Email}, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, stripeCheckoutResponse{CheckoutURL: s.URL, SessionID: s.ID})
}
