package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusFailed    = "failed"
	OrderStatusCancelled = "cancelled"
)

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	ID              string    `bun:"id,pk" json:"id"`
	EventID         string    `bun:"event_id,notnull" json:"eventId"`
	CustomerName    string    `bun:"customer_name,notnull" json:"customerName"`
	Email           string    `bun:"email,notnull" json:"email"`
	Phone           string    `bun:"phone,nullzero" json:"phone,omitempty"`
	PromoCodeID     string    `bun:"promo_code_id,nullzero" json:"promoCodeId,omitempty"`
	TotalAmount     int64     `bun:"total_amount,notnull" json:"totalAmount"`
	StripeSessionID string    `bun:"stripe_session_id,nullzero" json:"stripeSessionId,omitempty"`
	Status          string    `bun:"status,notnull" json:"status"`
	CreatedAt       time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time `bun:"updated_at,notnull" json:"updatedAt"`

	Items []*OrderItem `bun:"rel:has-many,join:id=order_id" json:"items,omitempty"`
}

type OrderItem struct {
	bun.BaseModel `bun:"table:order_items,alias:oi"`

	ID       string `bun:"id,pk" json:"id"`
	OrderID  string `bun:"order_id,notnull" json:"orderId"`
	TicketID string `bun:"ticket_id,notnull" json:"ticketId"`
	Quantity int    `bun:"quantity,notnull" json:"quantity"`
	// Price is the catalog price frozen at order creation.
	Price int64 `bun:"price,notnull" json:"price"`
}

// OrderEvent is the Kafka payload for order lifecycle transitions.
type OrderEvent struct {
	OrderID     string    `json:"orderId"`
	EventID     string    `json:"eventId"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"totalAmount"`
	SessionID   string    `json:"sessionId,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

func NewOrderEvent(o *Order) OrderEvent {
	return OrderEvent{
		OrderID:     o.ID,
		EventID:     o.EventID,
		Status:      o.Status,
		TotalAmount: o.TotalAmount,
		SessionID:   o.StripeSessionID,
		OccurredAt:  time.Now().UTC(),
	}
}
