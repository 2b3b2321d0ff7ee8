package api

import (
	"context"
	"fmt"
	"net/http"

	"ms-storefront/internal/checkout"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/utils"
)

const maxBodyBytes = 64 << 10

type CheckoutService interface {
	Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error)
}

type Handler struct {
	Service CheckoutService
	Logger  *logger.Logger
}

// Checkout handles POST /checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	req, err := checkout.DecodeRequest(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("Checkout: event=%s lines=%d promo=%t", req.EventID, len(req.Tickets), req.PromoCode != ""))

	resp, err := h.Service.Checkout(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}

	if err := utils.WriteJSON(w, http.StatusOK, resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: failed to encode response: %v", err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	ce := checkout.AsCheckoutError(err)
	status := ce.StatusCode()
	if status >= http.StatusInternalServerError {
		h.Logger.Error("API", fmt.Sprintf("Checkout: %s: %s", ce.Kind, ce.InternalError))
	} else {
		h.Logger.Warn("API", fmt.Sprintf("Checkout: %s: %s", ce.Kind, ce.InternalError))
	}

	if err := utils.WriteError(w, status, ce.PublicError); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Checkout: failed to encode error response: %v", err))
	}
}
