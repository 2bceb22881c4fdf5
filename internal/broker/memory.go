package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kapok/customer-service/internal/domain"
	"github.com/kapok/customer-service/internal/events"
)

// ErrUnrouted is returned when an in-process publish has no bound consumer.
var ErrUnrouted = errors.New("no consumer bound")

// MemoryBroker routes notifications through an in-process dispatcher. Publish delivers
// synchronously to every consumer bound to the same exchange and routing key.
type MemoryBroker struct {
	dispatcher events.Dispatcher
}

// NewMemoryBroker wraps dispatcher.
func NewMemoryBroker(dispatcher events.Dispatcher) *MemoryBroker {
	return &MemoryBroker{dispatcher: dispatcher}
}

// Publish encodes event and hands it to the dispatcher. Without a bound consumer the event would
// vanish, so that case is reported as ErrUnrouted.
func (b *MemoryBroker) Publish(ctx context.Context, event domain.NotificationEvent, exchange, routingKey string) error {
	if !b.dispatcher.HasSubscribers(exchange, routingKey) {
		return fmt.Errorf("%w: %s/%s", ErrUnrouted, exchange, routingKey)
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.dispatcher.Publish(ctx, events.Event{
		Exchange:   exchange,
		RoutingKey: routingKey,
		Body:       payload,
	})
}

// Bind subscribes handler synchronously, so publishes made after it returns are delivered.
func (b *MemoryBroker) Bind(exchange, routingKey string, handler MessageHandler) {
	b.dispatcher.Subscribe(exchange, routingKey, func(ctx context.Context, e events.Event) error {
		return handler(ctx, e.Body)
	})
}

// Consume binds handler and blocks until ctx is done. The queue name is ignored.
func (b *MemoryBroker) Consume(ctx context.Context, exchange, _ string, routingKey string, handler MessageHandler) error {
	b.Bind(exchange, routingKey, handler)
	<-ctx.Done()
	return nil
}
