package httpapi

import (
	"net/http"
	"time"

	couponapp "github.com/dwikikusuma/freshcart/internal/coupon/app"
	coupondomain "github.com/dwikikusuma/freshcart/internal/coupon/domain"
	orderdomain "github.com/dwikikusuma/freshcart/internal/order/domain"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type couponWriteRequest struct {
	Code         string          `json:"code"`
	DiscountType string          `json:"discount_type"`
	Amount       decimal.Decimal `json:"amount"`
	Active       *bool           `json:"active"`
	ValidFrom    *time.Time      `json:"valid_from"`
	ValidTo      *time.Time      `json:"valid_to"`
}

func (req couponWriteRequest) input() couponapp.CouponInput {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return couponapp.CouponInput{
		Code:         req.Code,
		DiscountType: coupondomain.DiscountType(req.DiscountType),
		Amount:       req.Amount,
		Active:       active,
		ValidFrom:    req.ValidFrom,
		ValidTo:      req.ValidTo,
	}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handler) listCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.Coupons.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	out := make([]couponView, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, newCouponView(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.Coupons.Lookup(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCouponView(c))
}

func (h *Handler) createCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponWriteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	c, err := h.Coupons.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCouponView(c))
}

func (h *Handler) updateCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponWriteRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	req.Code = chi.URLParam(r, "code")

	c, err := h.Coupons.Update(r.Context(), req.input())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newCouponView(c))
}

func (h *Handler) deleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.Coupons.Delete(r.Context(), chi.URLParam(r, "code")); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	o, err := h.Orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), orderdomain.Status(req.Status))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o))
}
