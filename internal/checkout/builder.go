package checkout

import (
	"time"

	"ms-storefront/internal/models"

	"github.com/google/uuid"
)

// BuildOrder creates a pending order priced from the catalog snapshot.
// Lines for tickets the event does not sell are kept with price 0.
// TotalAmount is left at 0 for the pricing step.
func BuildOrder(req models.CheckoutRequest, event *models.Event, promo *models.PromoCode) *models.Order {
	order := &models.Order{
		ID:           uuid.NewString(),
		EventID:      event.ID,
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		Status:       models.OrderStatusPending,
		CreatedAt:    time.Now().UTC(),
		Items:        make([]*models.OrderItem, 0, len(req.Tickets)),
	}
	if promo != nil {
		order.PromoCodeID = promo.ID
	}

	for _, line := range req.Tickets {
		price, _ := event.TicketPrice(line.TicketID)
		order.Items = append(order.Items, &models.OrderItem{
			ID:       uuid.NewString(),
			OrderID:  order.ID,
			TicketID: line.TicketID,
			Quantity: line.Quantity,
			Price:    price,
		})
	}

	return order
}
