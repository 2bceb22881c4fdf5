package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kapok/customer-service/internal/domain"
)

// NotificationRepository stores notifications delivered to customers.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository returns a Postgres-backed implementation.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if r.pool == nil {
		return errors.New("notification store not configured")
	}
	const query = `
        INSERT INTO notifications (to_customer_id, to_customer_email, sender, message)
        VALUES ($1, $2, $3, $4)
        RETURNING id, sent_at`
	return r.pool.QueryRow(ctx, query,
		n.ToCustomerID,
		n.ToCustomerEmail,
		n.Sender,
		n.Message,
	).Scan(&n.ID, &n.SentAt)
}
