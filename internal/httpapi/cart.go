package httpapi

import (
	"net/http"

	"github.com/dwikikusuma/freshcart/pkg/apperr"
)

var errQuantityRequired = apperr.Validation("quantity is required")

type cartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int32 `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	s, err := h.Cart.GetCart(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(s))
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	qty := int32(1)
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	s, err := h.Cart.AddItem(r.Context(), identityFrom(r.Context()).UserID, req.ProductID, qty)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(s))
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if req.Quantity == nil {
		writeError(w, r, h.Log, errQuantityRequired)
		return
	}

	s, err := h.Cart.UpdateItem(r.Context(), identityFrom(r.Context()).UserID, req.ProductID, *req.Quantity)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(s))
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	s, err := h.Cart.RemoveItem(r.Context(), identityFrom(r.Context()).UserID, req.ProductID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(s))
}

func (h *Handler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	s, applied, err := h.Cart.ApplyCoupon(r.Context(), identityFrom(r.Context()).UserID, req.Code)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	v := newCartView(s)
	v.CouponApplied = &applied
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	s, err := h.Cart.RemoveCoupon(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCartView(s))
}
