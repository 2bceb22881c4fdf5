// Package broker carries notification events between the customer and notification services.
package broker

import (
	"context"
	"errors"
)

// ErrPoison marks a message that can never be processed; consumers drop it instead of re-queuing.
var ErrPoison = errors.New("poison message")

// MessageHandler processes one delivered message body.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer delivers messages bound to exchange/routingKey through queue until ctx is done.
type Consumer interface {
	Consume(ctx context.Context, exchange, queue, routingKey string, handler MessageHandler) error
}
