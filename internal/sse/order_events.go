package sse

import (
	"context"
	"sync"

	"ms-storefront/internal/models"
)

const clientBuffer = 10

// OrderEventBroker fans order status changes out to SSE clients watching
// that order.
type OrderEventBroker struct {
	mu      sync.RWMutex
	clients map[string][]chan models.OrderEvent
}

func NewOrderEventBroker() *OrderEventBroker {
	return &OrderEventBroker{clients: make(map[string][]chan models.OrderEvent)}
}

// Subscribe registers a client for orderID. The channel is closed once ctx is done.
func (b *OrderEventBroker) Subscribe(ctx context.Context, orderID string) <-chan models.OrderEvent {
	ch := make(chan models.OrderEvent, clientBuffer)

	b.mu.Lock()
	b.clients[orderID] = append(b.clients[orderID], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.remove(orderID, ch)
	}()

	return ch
}

// Emit delivers event to every subscriber of its order. Slow clients with a
// full buffer miss the event.
func (b *OrderEventBroker) Emit(event models.OrderEvent) {
	// Sends happen under the read lock so remove cannot close a channel mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.clients[event.OrderID] {
		select {
		case ch <- event:
		default:
		}
	}
}

func (b *OrderEventBroker) remove(orderID string, ch chan models.OrderEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	clients := b.clients[orderID]
	for i, c := range clients {
		if c == ch {
			b.clients[orderID] = append(clients[:i], clients[i+1:]...)
			close(ch)
			break
		}
	}
	if len(b.clients[orderID]) == 0 {
		delete(b.clients, orderID)
	}
}

// ClientCount returns the number of clients watching orderID.
func (b *OrderEventBroker) ClientCount(orderID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[orderID])
}
