package ticket_api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	orderdb "ms-storefront/internal/order/db"
	"ms-storefront/internal/tickets/pass"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockOrders struct {
	mock.Mock
}

func (m *MockOrders) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func setupHandler(t *testing.T) (*Handler, *MockOrders, *chi.Mux) {
	g, err := pass.NewGenerator("door-secret")
	require.NoError(t, err)
	orders := new(MockOrders)
	h := NewHandler(orders, g, logger.NewWithWriter(io.Discard))
	h.Now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Get("/orders/{orderId}/pass", h.GetPass)
	r.Post("/passes/verify", h.VerifyPass)
	return h, orders, r
}

func order(status string) *models.Order {
	return &models.Order{
		ID:      "order-1",
		EventID: "event-1",
		Email:   "anna@example.com",
		Status:  status,
		Items:   []*models.OrderItem{{TicketID: "standard", Quantity: 2}},
	}
}

func TestGetPass(t *testing.T) {
	tests := []struct {
		name       string
		order      *models.Order
		err        error
		wantStatus int
		wantBody   string
	}{
		{"paid order", order(models.OrderStatusPaid), nil, http.StatusOK, ""},
		{"pending order", order(models.OrderStatusPending), nil, http.StatusConflict, `{"error":"order is not paid"}`},
		{"unknown order", nil, orderdb.ErrOrderNotFound, http.StatusNotFound, `{"error":"order not found"}`},
		{"store failure", nil, errors.New("db down"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, orders, r := setupHandler(t)
			orders.On("GetOrderByID", mock.Anything, "order-1").Return(tt.order, tt.err)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/order-1/pass", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
				_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
				assert.NoError(t, err)
			} else {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func postVerify(r http.Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/passes/verify", strings.NewReader(body)))
	return rec
}

func TestVerifyPass(t *testing.T) {
	h, orders, r := setupHandler(t)
	orders.On("GetOrderByID", mock.Anything, "order-1").Return(order(models.OrderStatusPaid), nil)

	code, err := h.Passes.Seal(pass.FromOrder(order(models.OrderStatusPaid), h.Now()))
	require.NoError(t, err)
	body, _ := json.Marshal(verifyRequest{Code: code})

	rec := postVerify(r, string(body))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"orderId":"order-1","eventId":"event-1","email":"anna@example.com","tickets":2}`, rec.Body.String())
}

func TestVerifyPass_Rejects(t *testing.T) {
	h, orders, r := setupHandler(t)
	cancelled := order(models.OrderStatusCancelled)
	cancelled.ID = "order-2"
	orders.On("GetOrderByID", mock.Anything, "order-2").Return(cancelled, nil)
	moved := order(models.OrderStatusPaid)
	moved.ID = "order-3"
	moved.EventID = "event-9"
	orders.On("GetOrderByID", mock.Anything, "order-3").Return(moved, nil)

	seal := func(o *models.Order, eventID string) string {
		p := pass.FromOrder(o, h.Now())
		p.EventID = eventID
		code, err := h.Passes.Seal(p)
		require.NoError(t, err)
		body, _ := json.Marshal(verifyRequest{Code: code})
		return string(body)
	}

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"malformed body", `{`, http.StatusBadRequest},
		{"empty code", `{"code":""}`, http.StatusBadRequest},
		{"forged code", `{"code":"bm90LWEtcGFzcw"}`, http.StatusBadRequest},
		{"order no longer paid", seal(cancelled, "event-1"), http.StatusConflict},
		{"event mismatch", seal(moved, "event-1"), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postVerify(r, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
