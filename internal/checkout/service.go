package checkout

import (
	"context"
	"errors"
	"fmt"

	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/order/discount"
)

type CatalogStore interface {
	GetEventWithTickets(ctx context.Context, eventID string) (*models.Event, error)
}

type PromoResolver interface {
	Resolve(ctx context.Context, code string) (discount.Policy, *models.PromoCode, error)
}

type OrderStore interface {
	CreateOrder(ctx context.Context, order *models.Order) error
	SetPaymentSession(ctx context.Context, orderID, sessionID string) error
	TransitionStatus(ctx context.Context, orderID, status string, from ...string) (bool, error)
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, req models.PaymentSessionRequest) (string, error)
}

type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderFailed(ctx context.Context, order *models.Order) error
}

type Service struct {
	Catalog  CatalogStore
	Promos   PromoResolver
	Orders   OrderStore
	Payments PaymentProvider
	Events   EventPublisher
	logger   *logger.Logger
}

func NewService(catalog CatalogStore, promos PromoResolver, orders OrderStore, payments PaymentProvider, events EventPublisher, log *logger.Logger) *Service {
	return &Service{
		Catalog:  catalog,
		Promos:   promos,
		Orders:   orders,
		Payments: payments,
		Events:   events,
		logger:   log,
	}
}

// Checkout prices the requested tickets, persists the order and opens a
// payment session for it. Every returned error is a *CheckoutError.
func (s *Service) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	event, err := s.Catalog.GetEventWithTickets(ctx, req.EventID)
	if errors.Is(err, catalogdb.ErrEventNotFound) {
		return nil, notFoundError(req.EventID, err)
	}
	if err != nil {
		return nil, internalError("catalog lookup", err)
	}
	s.logger.LogCheckout("CATALOG", event.ID, fmt.Sprintf("loaded %d ticket types", len(event.Tickets)))

	policy, promo, err := s.Promos.Resolve(ctx, req.PromoCode)
	if errors.Is(err, discount.ErrPromoInvalid) {
		return nil, invalidPromoError(req.PromoCode, err)
	}
	if err != nil {
		return nil, internalError("promo lookup", err)
	}

	order := BuildOrder(req, event, promo)
	for _, item := range order.Items {
		if _, ok := event.TicketPrice(item.TicketID); !ok {
			s.logger.Warn("CHECKOUT", fmt.Sprintf("ticket %s is not sold by event %s, priced at 0", item.TicketID, event.ID))
		}
	}

	subtotal, err := discount.Subtotal(order.Items)
	if err != nil {
		return nil, validationError(err)
	}
	order.TotalAmount = policy.Apply(subtotal)
	s.logger.LogCheckout("PRICING", event.ID, fmt.Sprintf("subtotal=%d policy=%s/%d total=%d",
		subtotal, policy.Kind, policy.Value, order.TotalAmount))

	if err := s.Orders.CreateOrder(ctx, order); err != nil {
		return nil, internalError("create order", err)
	}
	s.logger.LogOrder("CREATED", order.ID, fmt.Sprintf("total=%d items=%d", order.TotalAmount, len(order.Items)))
	s.publish(ctx, "created", order, s.Events.PublishOrderCreated)

	sessionID, err := s.Payments.CreateCheckoutSession(ctx, models.PaymentSessionRequest{
		OrderID:       order.ID,
		Amount:        order.TotalAmount,
		EventTitle:    event.Title,
		EventSlug:     event.Slug,
		CustomerEmail: order.Email,
	})
	if err != nil {
		s.compensate(ctx, order, err)
		return nil, paymentProviderError(order.ID, err)
	}

	if err := s.Orders.SetPaymentSession(ctx, order.ID, sessionID); err != nil {
		// The order stays pending and is cancelled by the reconciliation sweep.
		return nil, internalError(fmt.Sprintf("persist session %s for order %s", sessionID, order.ID), err)
	}
	order.StripeSessionID = sessionID
	s.logger.LogPayment("SESSION", order.ID, fmt.Sprintf("session=%s", sessionID))

	return &models.CheckoutResponse{SessionID: sessionID}, nil
}

// compensate marks an order failed after the provider refused to open a session.
func (s *Service) compensate(ctx context.Context, order *models.Order, cause error) {
	s.logger.Error("CHECKOUT", fmt.Sprintf("payment session for order %s failed: %v", order.ID, cause))

	changed, err := s.Orders.TransitionStatus(context.WithoutCancel(ctx), order.ID, models.OrderStatusFailed, models.OrderStatusPending)
	if err != nil {
		s.logger.Error("CHECKOUT", fmt.Sprintf("failed to mark order %s failed: %v", order.ID, err))
		return
	}
	if !changed {
		return
	}
	order.Status = models.OrderStatusFailed
	s.logger.LogOrder("FAILED", order.ID, "payment session could not be created")
	s.publish(ctx, "failed", order, s.Events.PublishOrderFailed)
}

func (s *Service) publish(ctx context.Context, name string, order *models.Order, fn func(context.Context, *models.Order) error) {
	if err := fn(context.WithoutCancel(ctx), order); err != nil {
		s.logger.Warn("KAFKA", fmt.Sprintf("failed to publish order %s event for %s: %v", name, order.ID, err))
	}
}
