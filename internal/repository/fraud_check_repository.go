package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kapok/customer-service/internal/domain"
)

// FraudCheckRepository persists the history of fraud verifications.
type FraudCheckRepository interface {
	Create(ctx context.Context, check *domain.FraudCheckHistory) error
	ListByCustomer(ctx context.Context, customerID string) ([]domain.FraudCheckHistory, error)
}

type fraudCheckRepository struct {
	pool *pgxpool.Pool
}

// NewFraudCheckRepository returns a Postgres-backed implementation.
func NewFraudCheckRepository(pool *pgxpool.Pool) FraudCheckRepository {
	return &fraudCheckRepository{pool: pool}
}

func (r *fraudCheckRepository) Create(ctx context.Context, check *domain.FraudCheckHistory) error {
	if r.pool == nil {
		return errors.New("fraud check store not configured")
	}
	const query = `
        INSERT INTO fraud_check_history (customer_id, is_fraudster)
        VALUES ($1, $2)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, check.CustomerID, check.IsFraudster).Scan(&check.ID, &check.CreatedAt)
}

func (r *fraudCheckRepository) ListByCustomer(ctx context.Context, customerID string) ([]domain.FraudCheckHistory, error) {
	if r.pool == nil {
		return nil, errors.New("fraud check store not configured")
	}
	const query = `
        SELECT id, customer_id, is_fraudster, created_at
        FROM fraud_check_history WHERE customer_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var checks []domain.FraudCheckHistory
	for rows.Next() {
		var h domain.FraudCheckHistory
		if err := rows.Scan(&h.ID, &h.CustomerID, &h.IsFraudster, &h.CreatedAt); err != nil {
			return nil, err
		}
		checks = append(checks, h)
	}
	return checks, rows.Err()
}
