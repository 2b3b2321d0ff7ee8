package services

import (
	"context"
	"errors"
	"fmt"

	"ms-storefront/internal/config"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/stripe/stripe-go/v82"
)

var (
	ErrStripeAPIError         = errors.New("stripe API error")
	ErrStripeClientInitFailed = errors.New("failed to initialize Stripe client")
	ErrEmptySession           = errors.New("stripe returned an empty checkout session")
)

// sessionCreator is the subset of the Stripe checkout session API we use.
type sessionCreator interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionCreateParams) (*stripe.CheckoutSession, error)
}

// StripeService opens hosted Stripe Checkout sessions for orders.
type StripeService struct {
	sessions sessionCreator
	cfg      config.StripeConfig
	log      *logger.Logger
}

// NewStripeService builds the service on a single Stripe client.
func NewStripeService(cfg config.StripeConfig, log *logger.Logger) (*StripeService, error) {
	if cfg.SecretKey == "" {
		log.Error("STRIPE", "STRIPE_SECRET_KEY is not set")
		return nil, ErrStripeClientInitFailed
	}

	sc := stripe.NewClient(cfg.SecretKey)
	log.Info("STRIPE", "Stripe client initialized successfully")
	return newStripeService(sc.V1CheckoutSessions, cfg, log), nil
}

func newStripeService(sessions sessionCreator, cfg config.StripeConfig, log *logger.Logger) *StripeService {
	return &StripeService{sessions: sessions, cfg: cfg, log: log}
}

// SessionParams builds the Stripe request for an order: one line item for the
// whole order total, correlated back through metadata.orderId.
func (s *StripeService) SessionParams(req models.PaymentSessionRequest) *stripe.CheckoutSessionCreateParams {
	return &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: []*string{stripe.String("card")},
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(s.cfg.Currency),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name: stripe.String(fmt.Sprintf("Tickets for %s", req.EventTitle)),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(s.cfg.BaseURL + "/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:     stripe.String(fmt.Sprintf("%s/events/%s", s.cfg.BaseURL, req.EventSlug)),
		CustomerEmail: stripe.String(req.CustomerEmail),
		Metadata:      map[string]string{"orderId": req.OrderID},
	}
}

// CreateCheckoutSession returns the Stripe session id. The call is bounded by
// the configured timeout.
func (s *StripeService) CreateCheckoutSession(ctx context.Context, req models.PaymentSessionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	s.log.LogPayment("CREATE_SESSION", req.OrderID, fmt.Sprintf("amount=%d %s", req.Amount, s.cfg.Currency))

	session, err := s.sessions.Create(ctx, s.SessionParams(req))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%w: %v", ErrStripeAPIError, ctxErr)
		}
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}
	if session == nil || session.ID == "" {
		return "", ErrEmptySession
	}

	return session.ID, nil
}
