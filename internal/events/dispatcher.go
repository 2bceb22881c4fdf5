package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(exchange, routingKey string, handler EventHandler)
	HasSubscribers(exchange, routingKey string) bool
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[Route][]EventHandler
}

// NewInMemoryDispatcher creates a dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[Route][]EventHandler),
	}
}

// Publish synchronously invokes every handler bound to the event's route. All handlers run;
// their errors are joined.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.route()]...)
	d.mu.RUnlock()

	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers a handler for the given exchange and routing key.
func (d *inMemoryDispatcher) Subscribe(exchange, routingKey string, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := Route{Exchange: exchange, RoutingKey: routingKey}
	d.listeners[r] = append(d.listeners[r], handler)
}

// HasSubscribers reports whether any handler is bound to exchange and routingKey.
func (d *inMemoryDispatcher) HasSubscribers(exchange, routingKey string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[Route{Exchange: exchange, RoutingKey: routingKey}]) > 0
}
