package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kapok/customer-service/internal/domain"
)

// InMemoryCustomerRepository keeps customers in process. Used by tests and when no DSN is configured.
type InMemoryCustomerRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.Customer
	byPhone map[string]string
	inserts int
}

// NewInMemoryCustomerRepository creates an empty store.
func NewInMemoryCustomerRepository() *InMemoryCustomerRepository {
	return &InMemoryCustomerRepository{
		byID:    make(map[string]domain.Customer),
		byPhone: make(map[string]string),
	}
}

// Insert checks the phone index and writes under one lock.
func (r *InMemoryCustomerRepository) Insert(_ context.Context, customer *domain.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byPhone[customer.PhoneNumber]; taken {
		return &domain.ConflictError{PhoneNumber: customer.PhoneNumber}
	}

	now := time.Now().UTC()
	customer.ID = uuid.NewString()
	if customer.Status == "" {
		customer.Status = domain.CustomerStatusPending
	}
	customer.CreatedAt = now
	customer.UpdatedAt = now

	r.byID[customer.ID] = *customer
	r.byPhone[customer.PhoneNumber] = customer.ID
	r.inserts++
	return nil
}

func (r *InMemoryCustomerRepository) FindByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *InMemoryCustomerRepository) FindByPhoneNumber(_ context.Context, phoneNumber string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byPhone[phoneNumber]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := r.byID[id]
	return &c, nil
}

func (r *InMemoryCustomerRepository) UpdateStatus(_ context.Context, id string, status domain.CustomerStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	c.Status = status
	c.UpdatedAt = time.Now().UTC()
	r.byID[id] = c
	return nil
}

func (r *InMemoryCustomerRepository) List(_ context.Context, limit, offset int) ([]domain.Customer, error) {
	r.mu.RLock()
	all := make([]domain.Customer, 0, len(r.byID))
	for _, c := range r.byID {
		all = append(all, c)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	offset = max(offset, 0)
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+normalizeLimit(limit), len(all))
	return all[offset:end], nil
}

// Inserts reports how many successful inserts the store has taken.
func (r *InMemoryCustomerRepository) Inserts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.inserts
}
