package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/payment/services"
)

type WebhookProcessor interface {
	HandleStripeWebhook(r *http.Request) error
}

type StripeHandler struct {
	webhooks WebhookProcessor
	logger   *logger.Logger
}

func NewStripeHandler(webhooks WebhookProcessor, logger *logger.Logger) *StripeHandler {
	return &StripeHandler{webhooks: webhooks, logger: logger}
}

// StripeWebhook handles POST /webhooks/stripe.
func (h *StripeHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	err := h.webhooks.HandleStripeWebhook(r)
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.logger.Error("API", fmt.Sprintf("StripeWebhook: failed to process webhook: %v", err))

	var webhookErr *services.WebhookError
	if errors.As(err, &webhookErr) {
		h.logger.Info("API", fmt.Sprintf("StripeWebhook: category=%s, status=%d", webhookErr.Category, webhookErr.StatusCode))
		http.Error(w, webhookErr.PublicError, webhookErr.StatusCode)
		return
	}

	http.Error(w, "Webhook processing error", http.StatusBadRequest)
}
