package order_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"
	orderdb "ms-storefront/internal/order/db"
	"ms-storefront/internal/sse"
	"ms-storefront/internal/utils"

	"github.com/go-chi/chi/v5"
)

type OrderReader interface {
	GetOrderByID(ctx context.Context, id string) (*models.Order, error)
}

// SSEHandler streams an order's status until it reaches a final state.
type SSEHandler struct {
	Orders    OrderReader
	Broker    *sse.OrderEventBroker
	Logger    *logger.Logger
	Heartbeat time.Duration
}

func NewSSEHandler(orders OrderReader, broker *sse.OrderEventBroker, log *logger.Logger) *SSEHandler {
	return &SSEHandler{Orders: orders, Broker: broker, Logger: log, Heartbeat: 15 * time.Second}
}

func isFinal(status string) bool {
	return status == models.OrderStatusPaid ||
		status == models.OrderStatusFailed ||
		status == models.OrderStatusCancelled
}

// StreamOrderStatus handles GET /orders/{orderId}/events.
func (h *SSEHandler) StreamOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderId")
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.WriteError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	ctx := r.Context()
	// Subscribe first so a transition between the load and the loop is not lost.
	events := h.Broker.Subscribe(ctx, orderID)

	order, err := h.Orders.GetOrderByID(ctx, orderID)
	if errors.Is(err, orderdb.ErrOrderNotFound) {
		utils.WriteError(w, http.StatusNotFound, "order not found")
		return
	}
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("load order %s: %v", orderID, err))
		utils.WriteError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Streams outlive the server's write timeout.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		h.Logger.Debug("SSE", fmt.Sprintf("clear write deadline: %v", err))
	}
	h.setupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	h.send(w, models.NewOrderEvent(order))
	flusher.Flush()
	if isFinal(order.Status) {
		return
	}

	h.Logger.Debug("SSE", fmt.Sprintf("Client watching order %s", orderID))

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			h.send(w, event)
			flusher.Flush()
			if isFinal(event.Status) {
				return
			}
		case <-heartbeat.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client stopped watching order %s", orderID))
			return
		}
	}
}

func (h *SSEHandler) send(w http.ResponseWriter, event models.OrderEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize order event: %v", err))
		return
	}
	fmt.Fprintf(w, "event: status\ndata: %s\n\n", data)
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
