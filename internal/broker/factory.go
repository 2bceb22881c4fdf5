package broker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/config"
	"github.com/kapok/customer-service/internal/domain"
	"github.com/kapok/customer-service/internal/events"
)

// Publisher sends a notification event to destination under routingKey.
type Publisher interface {
	Publish(ctx context.Context, event domain.NotificationEvent, destination, routingKey string) error
}

// NewPublisher builds the publisher for the configured driver. The returned func releases it.
func NewPublisher(cfg config.BrokerConfig, dispatcher events.Dispatcher, logger *zap.Logger) (Publisher, func(), error) {
	switch cfg.Driver {
	case config.BrokerDriverRabbitMQ:
		p, err := NewRabbitPublisher(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case config.BrokerDriverKafka:
		p, err := NewKafkaPublisher(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, nil, err
		}
		return p, p.Close, nil
	case config.BrokerDriverMemory:
		return NewMemoryBroker(dispatcher), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported broker driver %q", cfg.Driver)
	}
}

// NewConsumer builds the consumer for the configured driver. The returned func releases it.
func NewConsumer(cfg config.BrokerConfig, dispatcher events.Dispatcher, logger *zap.Logger) (Consumer, func(), error) {
	switch cfg.Driver {
	case config.BrokerDriverRabbitMQ:
		c, err := NewRabbitConsumer(cfg.RabbitMQURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	case config.BrokerDriverKafka:
		c, err := NewKafkaConsumer(cfg.KafkaBrokers, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	case config.BrokerDriverMemory:
		return NewMemoryBroker(dispatcher), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported broker driver %q", cfg.Driver)
	}
}
