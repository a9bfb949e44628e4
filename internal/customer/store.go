// Package customer manages the customer directory.
package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when the requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is one directory record.
type Customer struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	Email        string    `json:"email,omitempty"`
	City         string    `json:"city,omitempty"`
	LoyaltyLevel string    `json:"loyaltyLevel"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store abstracts customer persistence.
type Store interface {
	List(ctx context.Context) ([]Customer, error)
	Get(ctx context.Context, id uuid.UUID) (Customer, error)
	Create(ctx context.Context, c Customer) (Customer, error)
	Update(ctx context.Context, c Customer) (Customer, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PGStore is the pgx-backed Store implementation.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const customerColumns = "id, name, phone, email, city, loyalty_level, status, notes, created_at"

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Phone, &c.Email, &c.City, &c.LoyaltyLevel, &c.Status, &c.Notes, &c.CreatedAt)
	return c, err
}

// List returns every customer ordered by creation time descending.
func (s *PGStore) List(ctx context.Context) ([]Customer, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+customerColumns+" FROM customers ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get fetches a single customer by ID.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	c, err := scanCustomer(s.pool.QueryRow(ctx, "SELECT "+customerColumns+" FROM customers WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// Create inserts a customer.
func (s *PGStore) Create(ctx context.Context, c Customer) (Customer, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO customers (id, name, phone, email, city, loyalty_level, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Email, c.City, c.LoyaltyLevel, c.Status, c.Notes)
	created, err := scanCustomer(row)
	if err != nil {
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return created, nil
}

// Update replaces the mutable fields of a customer.
func (s *PGStore) Update(ctx context.Context, c Customer) (Customer, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE customers
		 SET name = $2, phone = $3, email = $4, city = $5, loyalty_level = $6, status = $7, notes = $8
		 WHERE id = $1
		 RETURNING `+customerColumns,
		c.ID, c.Name, c.Phone, c.Email, c.City, c.LoyaltyLevel, c.Status, c.Notes)
	updated, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrNotFound
		}
		return Customer{}, fmt.Errorf("update customer: %w", err)
	}
	return updated, nil
}

// Delete removes a customer by ID.
func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM customers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
