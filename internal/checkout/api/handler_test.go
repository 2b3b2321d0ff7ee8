package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/checkout"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	"ms-storefront/internal/order/discount"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCheckoutService struct {
	mock.Mock
}

func (m *MockCheckoutService) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CheckoutResponse), args.Error(1)
}

const validBody = `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":2}],"customerName":"Anna","email":"anna@example.com"}`

func serve(t *testing.T, svc CheckoutService, body string) (*httptest.ResponseRecorder, map[string]string) {
	h := &Handler{Service: svc, Logger: logger.NewWithWriter(io.Discard)}
	r := chi.NewRouter()
	r.Post("/checkout", h.Checkout)

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec, out
}

func TestCheckoutHandlerSuccess(t *testing.T) {
	svc := new(MockCheckoutService)
	svc.On("Checkout", mock.Anything, mock.MatchedBy(func(req models.CheckoutRequest) bool {
		return req.EventID == "e1" && req.Tickets[0].Quantity == 2
	})).Return(&models.CheckoutResponse{SessionID: "cs_test_1"}, nil)

	rec, out := serve(t, svc, validBody)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"sessionId": "cs_test_1"}, out)
	svc.AssertExpectations(t)
}

func TestCheckoutHandlerRejectsBadBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing tickets", `{"eventId":"e1"}`},
		// An order needs at least one ticket line.
		{"empty tickets array", `{"eventId":"e1","tickets":[],"customerName":"Anna","email":"anna@example.com"}`},
		{"quantity above cap", `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":1001}],"customerName":"Anna","email":"anna@example.com"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockCheckoutService)

			rec, out := serve(t, svc, tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid request", out["error"])
			svc.AssertNotCalled(t, "Checkout", mock.Anything, mock.Anything)
		})
	}
}

// failingService returns err for every checkout.
type failingService struct {
	err error
}

func (f failingService) Checkout(ctx context.Context, req models.CheckoutRequest) (*models.CheckoutResponse, error) {
	return nil, f.err
}

func TestCheckoutHandlerErrorMapping(t *testing.T) {
	svc := checkout.NewService(
		stubCatalog{err: catalogdb.ErrEventNotFound},
		nil, nil, nil, nil,
		logger.NewWithWriter(io.Discard),
	)
	rec, out := serve(t, svc, validBody)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "event not found", out["error"])

	svc = checkout.NewService(
		stubCatalog{event: &models.Event{ID: "e1"}},
		stubPromos{err: discount.ErrPromoInvalid},
		nil, nil, nil,
		logger.NewWithWriter(io.Discard),
	)
	rec, out = serve(t, svc, `{"eventId":"e1","tickets":[{"ticketId":"t1","quantity":2}],"customerName":"Anna","email":"anna@example.com","promoCode":"BAD"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "promo code invalid", out["error"])

	rec, out = serve(t, failingService{err: errors.New("pq: relation \"orders\" does not exist")}, validBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", out["error"])
	assert.NotContains(t, rec.Body.String(), "pq:")
}

type stubCatalog struct {
	event *models.Event
	err   error
}

func (s stubCatalog) GetEventWithTickets(ctx context.Context, eventID string) (*models.Event, error) {
	return s.event, s.err
}

type stubPromos struct {
	err error
}

func (s stubPromos) Resolve(ctx context.Context, code string) (discount.Policy, *models.PromoCode, error) {
	return discount.NoDiscount, nil, s.err
}
