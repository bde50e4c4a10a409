package httpapi

import (
	"errors"
	"io"
	"net/http"

	paymentapp "github.com/dwikikusuma/freshcart/internal/payment/app"
)

func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "INVALID_PAYLOAD", Message: "invalid payload"})
		return
	}

	err = h.Payments.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	if errors.Is(err, paymentapp.ErrInvalidSignature) {
		writeJSON(w, http.StatusBadRequest, errorBody{Code: "INVALID_SIGNATURE", Message: "invalid signature"})
		return
	}
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
