package broker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/domain"
)

const routingKeyHeader = "routing-key"

// KafkaPublisher publishes notification events to a Kafka topic named after the destination.
type KafkaPublisher struct {
	client *kgo.Client
	logger *zap.Logger
}

// NewKafkaPublisher creates a franz-go producer for the given seed brokers.
func NewKafkaPublisher(brokers []string, logger *zap.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{client: client, logger: logger}, nil
}

// Publish writes event keyed by customer ID; the routing key travels as a record header.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.NotificationEvent, destination, routingKey string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	record := &kgo.Record{
		Topic: destination,
		Key:   []byte(event.CustomerID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: routingKeyHeader, Value: []byte(routingKey)},
		},
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return err
	}

	p.logger.Debug("published notification",
		zap.String("topic", destination),
		zap.String("routing_key", routingKey),
		zap.String("customer_id", event.CustomerID))
	return nil
}

// Close flushes and closes the client.
func (p *KafkaPublisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

// KafkaConsumer reads notification events from the topic named after the exchange, using the
// queue name as the consumer group.
type KafkaConsumer struct {
	brokers []string
	logger  *zap.Logger
	retry   retryPolicy
}

// NewKafkaConsumer validates the seed brokers. The client is created per Consume call.
func NewKafkaConsumer(brokers []string, logger *zap.Logger) (*KafkaConsumer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	return &KafkaConsumer{brokers: brokers, logger: logger, retry: defaultRetryPolicy()}, nil
}

// Consume polls until ctx is done. Records whose routing-key header does not match are skipped.
// A handler error other than ErrPoison is retried a few times before the record is given up on.
func (c *KafkaConsumer) Consume(ctx context.Context, exchange, queue, routingKey string, handler MessageHandler) error {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(c.brokers...),
		kgo.ConsumerGroup(queue),
		kgo.ConsumeTopics(exchange),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return err
	}
	defer client.Close()

	for {
		fetches := client.PollFetches(ctx)
		if ctx.Err() != nil || fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Warn("kafka fetch failed",
				zap.String("topic", topic),
				zap.Int32("partition", partition),
				zap.Error(err))
		})

		var done []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			if headerValue(record, routingKeyHeader) == routingKey {
				c.handle(ctx, record, handler)
			}
			done = append(done, record)
		})
		if len(done) == 0 {
			continue
		}
		if err := client.CommitRecords(ctx, done...); err != nil && ctx.Err() == nil {
			c.logger.Warn("kafka commit failed", zap.Error(err))
		}
	}
}

func (c *KafkaConsumer) handle(ctx context.Context, record *kgo.Record, handler MessageHandler) {
	err := c.retry.run(ctx, handler, record.Value)
	switch {
	case err == nil:
	case errors.Is(err, ErrPoison):
		c.logger.Warn("dropping poison message", zap.Int64("offset", record.Offset), zap.Error(err))
	default:
		c.logger.Error("giving up on message", zap.Int64("offset", record.Offset), zap.Error(err))
	}
}

func headerValue(record *kgo.Record, key string) string {
	for _, h := range record.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
