package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/broker"
	"github.com/kapok/customer-service/internal/config"
	"github.com/kapok/customer-service/internal/events"
	"github.com/kapok/customer-service/internal/service"
)

// StartNotificationWorker binds the notification queue and feeds deliveries to the notification
// service. It blocks until ctx is cancelled or the consumer fails.
func StartNotificationWorker(ctx context.Context, consumer broker.Consumer, notificationService *service.NotificationService, cfg config.BrokerConfig, logger *zap.Logger) error {
	if consumer == nil || notificationService == nil {
		return nil
	}
	logger.Info("starting notification worker",
		zap.String("exchange", cfg.Exchange),
		zap.String("queue", cfg.Queue),
		zap.String("routing_key", cfg.RoutingKey))
	return consumer.Consume(ctx, cfg.Exchange, cfg.Queue, cfg.RoutingKey, notificationService.HandleMessage)
}

// BindInProcessNotifications attaches the notification service directly to dispatcher. The
// customer service uses it under the memory driver so published welcome events are stored in the
// same process. It returns once the binding is in place.
func BindInProcessNotifications(dispatcher events.Dispatcher, notificationService *service.NotificationService, cfg config.BrokerConfig, logger *zap.Logger) {
	broker.NewMemoryBroker(dispatcher).Bind(cfg.Exchange, cfg.RoutingKey, notificationService.HandleMessage)
	logger.Info("notification handling bound in process",
		zap.String("exchange", cfg.Exchange),
		zap.String("routing_key", cfg.RoutingKey))
}
