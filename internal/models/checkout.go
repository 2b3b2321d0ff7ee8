package models

type CheckoutTicket struct {
	TicketID string `json:"ticketId" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1,max=1000"`
}

type CheckoutRequest struct {
	EventID      string           `json:"eventId" validate:"required"`
	Tickets      []CheckoutTicket `json:"tickets" validate:"required,min=1,dive"`
	CustomerName string           `json:"customerName" validate:"required,min=1"`
	Email        string           `json:"email" validate:"required,email"`
	Phone        string           `json:"phone,omitempty"`
	PromoCode    string           `json:"promoCode,omitempty"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// PaymentSessionRequest is what the payment provider needs to open a hosted checkout.
type PaymentSessionRequest struct {
	OrderID       string
	Amount        int64
	EventTitle    string
	EventSlug     string
	CustomerEmail string
}
