package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/domain"
)

// RabbitPublisher publishes notification events to topic exchanges.
type RabbitPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	logger   *zap.Logger
	mu       sync.Mutex
	declared map[string]bool
}

// NewRabbitPublisher dials RabbitMQ and opens a publishing channel.
func NewRabbitPublisher(amqpURL string, logger *zap.Logger) (*RabbitPublisher, error) {
	conn, channel, err := dial(amqpURL)
	if err != nil {
		return nil, err
	}
	return &RabbitPublisher{
		conn:     conn,
		channel:  channel,
		logger:   logger,
		declared: make(map[string]bool),
	}, nil
}

// Publish sends event as JSON to exchange with the given routing key.
func (p *RabbitPublisher) Publish(ctx context.Context, event domain.NotificationEvent, exchange, routingKey string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.declared[exchange] {
		if err := declareExchange(p.channel, exchange); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		p.declared[exchange] = true
	}

	if err := p.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         payload,
	}); err != nil {
		return err
	}

	p.logger.Debug("published notification",
		zap.String("exchange", exchange),
		zap.String("routing_key", routingKey),
		zap.String("customer_id", event.CustomerID))
	return nil
}

// Close releases channel and connection resources.
func (p *RabbitPublisher) Close() {
	closeAMQP(p.conn, p.channel)
}

// RabbitConsumer binds a durable queue to a topic exchange and hands deliveries to a handler.
type RabbitConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
	retry   retryPolicy
}

const rabbitPrefetch = 1

// NewRabbitConsumer dials RabbitMQ and opens a consuming channel.
func NewRabbitConsumer(amqpURL string, logger *zap.Logger) (*RabbitConsumer, error) {
	conn, channel, err := dial(amqpURL)
	if err != nil {
		return nil, err
	}
	return &RabbitConsumer{conn: conn, channel: channel, logger: logger, retry: defaultRetryPolicy()}, nil
}

// Consume blocks until ctx is cancelled or the delivery channel closes. Successful deliveries are
// acked and ErrPoison deliveries are dropped. Other failures are retried in place with backoff,
// then re-queued after one more backoff period so a persistent outage cannot spin the consumer.
func (c *RabbitConsumer) Consume(ctx context.Context, exchange, queue, routingKey string, handler MessageHandler) error {
	if err := declareExchange(c.channel, exchange); err != nil {
		return fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	q, err := c.channel.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	if err := c.channel.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", queue, err)
	}

	if err := c.channel.Qos(rabbitPrefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch on %s: %w", queue, err)
	}

	msgs, err := c.channel.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queue, err)
	}

	c.logger.Info("consuming", zap.String("queue", q.Name), zap.String("routing_key", routingKey))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.dispatch(ctx, d, handler)
		}
	}
}

func (c *RabbitConsumer) dispatch(ctx context.Context, d amqp.Delivery, handler MessageHandler) {
	err := c.retry.run(ctx, handler, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrPoison):
		c.logger.Warn("dropping unprocessable message", zap.String("routing_key", d.RoutingKey), zap.Error(err))
		_ = d.Nack(false, false)
	default:
		c.logger.Warn("handler failed; re-queuing after backoff",
			zap.String("routing_key", d.RoutingKey),
			zap.Int("attempts", c.retry.attempts),
			zap.Error(err))
		_ = c.retry.wait(ctx, c.retry.attempts)
		_ = d.Nack(false, true)
	}
}

// Close releases channel and connection resources.
func (c *RabbitConsumer) Close() {
	closeAMQP(c.conn, c.channel)
}

func dial(amqpURL string) (*amqp.Connection, *amqp.Channel, error) {
	cleanURL, err := sanitizeURL(amqpURL)
	if err != nil {
		return nil, nil, err
	}

	conn, err := amqp.DialConfig(cleanURL, amqp.Config{Dial: amqp.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, channel, nil
}

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil)
}

func closeAMQP(conn *amqp.Connection, ch *amqp.Channel) {
	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

func sanitizeURL(raw string) (string, error) {
	clean := strings.Trim(strings.TrimSpace(raw), "\"'")
	parsed, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "amqp" && parsed.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}
