package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/broker"
	"github.com/kapok/customer-service/internal/domain"
	"github.com/kapok/customer-service/internal/observability"
	"github.com/kapok/customer-service/internal/repository"
)

// NotificationSender is the sender recorded on every welcome notification.
const NotificationSender = "Kapok"

// NotificationService stores notifications consumed from the broker.
type NotificationService struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
	metrics       *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(notifications repository.NotificationRepository, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
		metrics:       metrics,
	}
}

// HandleMessage decodes a NotificationEvent and persists it. Undecodable payloads are reported
// as broker.ErrPoison so the consumer drops them.
func (n *NotificationService) HandleMessage(ctx context.Context, body []byte) error {
	var event domain.NotificationEvent
	if err := json.Unmarshal(body, &event); err != nil {
		n.metrics.RecordConsumed("poison")
		return fmt.Errorf("%w: %v", broker.ErrPoison, err)
	}
	if strings.TrimSpace(event.CustomerID) == "" || strings.TrimSpace(event.Email) == "" {
		n.metrics.RecordConsumed("poison")
		return fmt.Errorf("%w: missing customer id or email", broker.ErrPoison)
	}

	notification := &domain.Notification{
		ToCustomerID:    event.CustomerID,
		ToCustomerEmail: event.Email,
		Sender:          NotificationSender,
		Message:         event.Message,
	}
	if err := n.notifications.Create(ctx, notification); err != nil {
		n.metrics.RecordConsumed("failed")
		return err
	}

	n.metrics.RecordConsumed("stored")
	n.logger.Info("notification sent",
		zap.String("notification_id", notification.ID),
		zap.String("customer_id", notification.ToCustomerID))
	return nil
}
