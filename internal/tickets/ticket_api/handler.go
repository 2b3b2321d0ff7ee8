package ticket_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/auth"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	orderdb "ms-storefront/internal/order/db"
	"ms-storefront/internal/tickets/pass"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderReader interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

type Handler struct {
	Orders OrderReader
	Passes *pass.Generator
	Logger *logger.Logger
	// Now defaults to time.Now and is replaced in tests.
	Now func() time.Time
}

func NewHandler(orders OrderReader, passes *pass.Generator, log *logger.Logger) *Handler {
	return &Handler{Orders: orders, Passes: passes, Logger: log, Now: time.Now}
}

// GetPass renders the QR pass of a paid order as PNG.
func (h *Handler) GetPass(w http.ResponseWriter, r *http.Request) {
	order, ok := h.paidOrder(w, r, chi.URLParam(r, "orderId"))
	if !ok {
		return
	}

	img, err := h.Passes.PNG(pass.FromOrder(order, h.Now()))
	if err != nil {
		h.Logger.Error("TICKETS", fmt.Sprintf("render pass for %s: %v", order.ID, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Valid   bool   `json:"valid"`
	OrderID string `json:"orderId"`
	EventID string `json:"eventId"`
	Email   string `json:"email"`
	Tickets int    `json:"tickets"`
}

// VerifyPass checks a scanned code at the door. Mount behind auth.RequireSession.
func (h *Handler) VerifyPass(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 8<<10)).Decode(&req); err != nil || req.Code == "" {
		utils.WriteError(w, http.StatusBadRequest, "invalid request")
		return
	}

	p, err := h.Passes.Open(req.Code)
	if err != nil {
		h.Logger.LogSecurity("PASS_REJECTED", fmt.Sprintf("scanner=%s: %v", auth.Subject(r.Context()), err))
		utils.WriteError(w, http.StatusBadRequest, "invalid pass")
		return
	}

	order, ok := h.paidOrder(w, r, p.OrderID)
	if !ok {
		return
	}
	if order.EventID != p.EventID {
		utils.WriteError(w, http.StatusBadRequest, "invalid pass")
		return
	}

	h.Logger.LogOrder("PASS_VERIFIED", order.ID, fmt.Sprintf("scanned by %s", auth.Subject(r.Context())))
	utils.WriteJSON(w, http.StatusOK, verifyResponse{
		Valid:   true,
		OrderID: order.ID,
		EventID: order.EventID,
		Email:   order.Email,
		Tickets: p.Tickets,
	})
}

func (h *Handler) paidOrder(w http.ResponseWriter, r *http.Request, orderID string) (*models.Order, bool) {
	order, err := h.Orders.GetOrderByID(r.Context(), orderID)
	if errors.Is(err, orderdb.ErrOrderNotFound) {
		utils.WriteError(w, http.StatusNotFound, "order not found")
		return nil, false
	}
	if err != nil {
		h.Logger.Error("TICKETS", fmt.Sprintf("load order %s: %v", orderID, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
		return nil, false
	}
	if order.Status != models.OrderStatusPaid {
		utils.WriteError(w, http.StatusConflict, "order is not paid")
		return nil, false
	}
	return order, true
}
