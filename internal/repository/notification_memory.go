package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kapok/customer-service/internal/domain"
)

// InMemoryNotificationRepository keeps notifications in process. The customer service uses it
// when it runs the notification path itself without a database.
type InMemoryNotificationRepository struct {
	mu     sync.RWMutex
	stored []domain.Notification
}

// NewInMemoryNotificationRepository returns an empty repository.
func NewInMemoryNotificationRepository() *InMemoryNotificationRepository {
	return &InMemoryNotificationRepository{}
}

func (r *InMemoryNotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = uuid.NewString()
	n.SentAt = time.Now().UTC()
	r.stored = append(r.stored, *n)
	return nil
}

// All returns a copy of the stored notifications in insertion order.
func (r *InMemoryNotificationRepository) All() []domain.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Notification(nil), r.stored...)
}
