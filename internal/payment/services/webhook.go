package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	orderdb "ms-storefront/internal/order/db"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

const maxWebhookBytes = 1 << 20

type OrderStore interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
	GetOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error)
	TransitionStatus(ctx context.Context, orderID, status string, from ...string) (bool, error)
}

type OrderPublisher interface {
	PublishOrderPaid(ctx context.Context, order *models.Order) error
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

// WebhookError keeps the client-facing message apart from the logged detail.
type WebhookError struct {
	Category      string // "configuration", "validation", "processing"
	StatusCode    int
	PublicError   string
	InternalError string
	OriginalErr   error
}

func (e *WebhookError) Error() string {
	return e.InternalError
}

func (e *WebhookError) Unwrap() error {
	return e.OriginalErr
}

type WebhookService struct {
	secret string
	orders OrderStore
	events OrderPublisher
	log    *logger.Logger
}

func NewWebhookService(secret string, orders OrderStore, events OrderPublisher, log *logger.Logger) *WebhookService {
	return &WebhookService{secret: secret, orders: orders, events: events, log: log}
}

// HandleStripeWebhook verifies and applies one Stripe event.
func (s *WebhookService) HandleStripeWebhook(r *http.Request) error {
	if s.secret == "" {
		return &WebhookError{
			Category:      "configuration",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Webhook processing error",
			InternalError: "Stripe webhook secret is not configured",
		}
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid webhook payload",
			InternalError: fmt.Sprintf("Failed to read webhook payload: %v", err),
			OriginalErr:   err,
		}
	}

	event, err := webhook.ConstructEventWithOptions(payload, r.Header.Get("Stripe-Signature"), s.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return &WebhookError{
			Category:      "validation",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Webhook signature verification failed",
			InternalError: fmt.Sprintf("Webhook signature verification failed: %v", err),
			OriginalErr:   err,
		}
	}

	s.log.Info("WEBHOOK", fmt.Sprintf("Processing Stripe webhook event: %s (%s)", event.Type, event.ID))

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		return s.apply(r.Context(), event, models.OrderStatusPaid)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		return s.apply(r.Context(), event, models.OrderStatusCancelled)
	default:
		s.log.Debug("WEBHOOK", fmt.Sprintf("Unhandled event type: %s", event.Type))
		return nil
	}
}

func (s *WebhookService) apply(ctx context.Context, event stripe.Event, status string) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusBadRequest,
			PublicError:   "Invalid event data",
			InternalError: fmt.Sprintf("Failed to unmarshal checkout session: %v", err),
			OriginalErr:   err,
		}
	}

	if status == models.OrderStatusPaid && session.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		s.log.Info("WEBHOOK", fmt.Sprintf("Session %s completed without payment yet, waiting for async confirmation", session.ID))
		return nil
	}

	order, err := s.findOrder(ctx, &session)
	if errors.Is(err, orderdb.ErrOrderNotFound) {
		// Acknowledged so Stripe stops retrying.
		s.log.Warn("WEBHOOK", fmt.Sprintf("No order for session %s: %v", session.ID, err))
		return nil
	}
	if err != nil {
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Failed to process payment",
			InternalError: fmt.Sprintf("Failed to load order for session %s: %v", session.ID, err),
			OriginalErr:   err,
		}
	}

	from := []string{models.OrderStatusPending}
	if status == models.OrderStatusPaid {
		// A paid session settles orders given up on locally: failed after a
		// provider timeout, or cancelled by the sweep before the session id
		// was stored.
		from = append(from, models.OrderStatusFailed, models.OrderStatusCancelled)
	}
	changed, err := s.orders.TransitionStatus(ctx, order.ID, status, from...)
	if err != nil {
		return &WebhookError{
			Category:      "processing",
			StatusCode:    http.StatusInternalServerError,
			PublicError:   "Failed to process payment",
			InternalError: fmt.Sprintf("Failed to mark order %s %s: %v", order.ID, status, err),
			OriginalErr:   err,
		}
	}
	if !changed {
		s.log.Info("WEBHOOK", fmt.Sprintf("Order %s already %s, ignoring %s", order.ID, order.Status, event.Type))
		return nil
	}

	order.Status = status
	s.log.LogOrder(status, order.ID, fmt.Sprintf("via %s", event.Type))

	publish := s.events.PublishOrderPaid
	if status == models.OrderStatusCancelled {
		publish = s.events.PublishOrderCancelled
	}
	if err := publish(ctx, order); err != nil {
		s.log.Warn("KAFKA", fmt.Sprintf("Failed to publish %s for order %s: %v", status, order.ID, err))
	}
	return nil
}

func (s *WebhookService) findOrder(ctx context.Context, session *stripe.CheckoutSession) (*models.Order, error) {
	if id := session.Metadata["orderId"]; id != "" {
		return s.orders.GetOrderByID(ctx, id)
	}
	if session.ID == "" {
		return nil, fmt.Errorf("session without id: %w", orderdb.ErrOrderNotFound)
	}
	return s.orders.GetOrderBySessionID(ctx, session.ID)
}
