package sse

import (
	"context"
	"errors"

	"ms-storefront/internal/models"
)

type OrderPublisher interface {
	PublishOrderCreated(ctx context.Context, order *models.Order) error
	PublishOrderPaid(ctx context.Context, order *models.Order) error
	PublishOrderFailed(ctx context.Context, order *models.Order) error
	PublishOrderCancelled(ctx context.Context, order *models.Order) error
}

// Publisher mirrors every order event to the broker before handing it to Next.
// OnPaid, when set, runs in-process for paid orders whether or not Next
// reaches a message broker.
type Publisher struct {
	Next   OrderPublisher
	Broker *OrderEventBroker
	OnPaid func(ctx context.Context, event models.OrderEvent) error
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	p.Broker.Emit(models.NewOrderEvent(order))
	return p.Next.PublishOrderCreated(ctx, order)
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, order *models.Order) error {
	event := models.NewOrderEvent(order)
	p.Broker.Emit(event)

	var hookErr error
	if p.OnPaid != nil {
		hookErr = p.OnPaid(ctx, event)
	}
	return errors.Join(hookErr, p.Next.PublishOrderPaid(ctx, order))
}

func (p *Publisher) PublishOrderFailed(ctx context.Context, order *models.Order) error {
	p.Broker.Emit(models.NewOrderEvent(order))
	return p.Next.PublishOrderFailed(ctx, order)
}

func (p *Publisher) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	p.Broker.Emit(models.NewOrderEvent(order))
	return p.Next.PublishOrderCancelled(ctx, order)
}
