package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kapok/customer-service/internal/domain"
)

const customerKeyPrefix = "customer:"

// cachedCustomerRepository serves FindByID from Redis. Phone lookups and inserts always hit the
// underlying store so the uniqueness check never reads stale data.
type cachedCustomerRepository struct {
	CustomerRepository
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedCustomerRepository wraps next with a read-through Redis cache. A nil client disables caching.
func NewCachedCustomerRepository(next CustomerRepository, client *redis.Client, ttl time.Duration, logger *zap.Logger) CustomerRepository {
	if client == nil || ttl <= 0 {
		return next
	}
	return &cachedCustomerRepository{CustomerRepository: next, client: client, ttl: ttl, logger: logger}
}

func (r *cachedCustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	key := customerKeyPrefix + id

	raw, err := r.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var c domain.Customer
		if jsonErr := json.Unmarshal(raw, &c); jsonErr == nil {
			return &c, nil
		}
		r.logger.Warn("discarding malformed cached customer", zap.String("customer_id", id))
	case !errors.Is(err, redis.Nil):
		r.logger.Warn("customer cache read failed", zap.String("customer_id", id), zap.Error(err))
	}

	c, err := r.CustomerRepository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, c)
	return c, nil
}

func (r *cachedCustomerRepository) UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error {
	if err := r.CustomerRepository.UpdateStatus(ctx, id, status); err != nil {
		return err
	}
	if err := r.client.Del(ctx, customerKeyPrefix+id).Err(); err != nil {
		r.logger.Warn("customer cache invalidation failed", zap.String("customer_id", id), zap.Error(err))
	}
	return nil
}

func (r *cachedCustomerRepository) store(ctx context.Context, c *domain.Customer) {
	payload, err := json.Marshal(c)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, customerKeyPrefix+c.ID, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("customer cache write failed", zap.String("customer_id", c.ID), zap.Error(err))
	}
}
