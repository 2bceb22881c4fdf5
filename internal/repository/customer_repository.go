package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kapok/customer-service/internal/domain"
)

const uniqueViolation = "23505"

// CustomerRepository is the customer store. Insert enforces phone number uniqueness atomically.
type CustomerRepository interface {
	Insert(ctx context.Context, customer *domain.Customer) error
	FindByID(ctx context.Context, id string) (*domain.Customer, error)
	FindByPhoneNumber(ctx context.Context, phoneNumber string) (*domain.Customer, error)
	UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error
	List(ctx context.Context, limit, offset int) ([]domain.Customer, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

// Insert relies on the customers_phone_number_key unique index; the losing side of a race gets a ConflictError.
func (r *customerRepository) Insert(ctx context.Context, customer *domain.Customer) error {
	const query = `
        INSERT INTO customers (first_name, last_name, email, phone_number, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	if customer.Status == "" {
		customer.Status = domain.CustomerStatusPending
	}

	err := r.pool.QueryRow(ctx, query,
		customer.FirstName,
		customer.LastName,
		customer.Email,
		customer.PhoneNumber,
		customer.Status,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return &domain.ConflictError{PhoneNumber: customer.PhoneNumber}
		}
		return err
	}
	return nil
}

func (r *customerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	const query = `
        SELECT id, first_name, last_name, email, phone_number, status, created_at, updated_at
        FROM customers WHERE id=$1`
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return r.fetchSingle(ctx, query, id)
}

func (r *customerRepository) FindByPhoneNumber(ctx context.Context, phoneNumber string) (*domain.Customer, error) {
	const query = `
        SELECT id, first_name, last_name, email, phone_number, status, created_at, updated_at
        FROM customers WHERE phone_number=$1`
	return r.fetchSingle(ctx, query, phoneNumber)
}

func (r *customerRepository) UpdateStatus(ctx context.Context, id string, status domain.CustomerStatus) error {
	const query = `UPDATE customers SET status=$1, updated_at=NOW() WHERE id=$2`
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}

	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *customerRepository) List(ctx context.Context, limit, offset int) ([]domain.Customer, error) {
	const query = `
        SELECT id, first_name, last_name, email, phone_number, status, created_at, updated_at
        FROM customers ORDER BY created_at, id LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, normalizeLimit(limit), max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []domain.Customer
	for rows.Next() {
		var c domain.Customer
		if err := rows.Scan(
			&c.ID,
			&c.FirstName,
			&c.LastName,
			&c.Email,
			&c.PhoneNumber,
			&c.Status,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *customerRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Customer, error) {
	var c domain.Customer
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&c.ID,
		&c.FirstName,
		&c.LastName,
		&c.Email,
		&c.PhoneNumber,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}
