// Package delivery manages the configurable delivery-option fee table used
// for checkout quotes.
package delivery

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

// ErrNotFound indicates the requested delivery option does not exist.
var ErrNotFound = errors.New("delivery option not found")

// Option is one configurable delivery method.
type Option struct {
	Method  string        `json:"method"`
	Label   string        `json:"label"`
	Fee     pricing.Money `json:"fee"`
	Enabled bool          `json:"enabled"`
}

// Store persists delivery options in Postgres.
type Store struct {
	pool       *pgxpool.Pool
	defaultFee pricing.Money
}

// NewStore constructs a Store. defaultFee applies to unknown or disabled
// non-pickup methods.
func NewStore(pool *pgxpool.Pool, defaultFee pricing.Money) *Store {
	return &Store{pool: pool, defaultFee: defaultFee}
}

// Seed inserts the provided options unless rows already exist.
func (s *Store) Seed(ctx context.Context, options []Option) error {
	var count int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM delivery_options").Scan(&count); err != nil {
		return fmt.Errorf("count delivery options: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, opt := range options {
		if _, err := s.pool.Exec(ctx,
			"INSERT INTO delivery_options (method, label, fee, enabled) VALUES ($1, $2, $3, $4) ON CONFLICT (method) DO NOTHING",
			opt.Method, opt.Label, opt.Fee, opt.Enabled); err != nil {
			return fmt.Errorf("seed delivery option %s: %w", opt.Method, err)
		}
	}
	return nil
}

// List returns every delivery option.
func (s *Store) List(ctx context.Context) ([]Option, error) {
	rows, err := s.pool.Query(ctx, "SELECT method, label, fee, enabled FROM delivery_options ORDER BY method")
	if err != nil {
		return nil, fmt.Errorf("list delivery options: %w", err)
	}
	defer rows.Close()
	var out []Option
	for rows.Next() {
		var opt Option
		if err := rows.Scan(&opt.Method, &opt.Label, &opt.Fee, &opt.Enabled); err != nil {
			return nil, fmt.Errorf("scan delivery option: %w", err)
		}
		out = append(out, opt)
	}
	return out, rows.Err()
}

// Update replaces the fee, label, and enabled flag for a method.
func (s *Store) Update(ctx context.Context, opt Option) (Option, error) {
	row := s.pool.QueryRow(ctx,
		"UPDATE delivery_options SET label = $2, fee = $3, enabled = $4 WHERE method = $1 RETURNING method, label, fee, enabled",
		opt.Method, opt.Label, opt.Fee, opt.Enabled)
	var updated Option
	if err := row.Scan(&updated.Method, &updated.Label, &updated.Fee, &updated.Enabled); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Option{}, ErrNotFound
		}
		return Option{}, fmt.Errorf("update delivery option: %w", err)
	}
	return updated, nil
}

// FeeTable assembles the live pricing fee table. Disabled options fall back
// to the default fee through omission.
func (s *Store) FeeTable(ctx context.Context) (pricing.FeeTable, error) {
	options, err := s.List(ctx)
	if err != nil {
		return pricing.FeeTable{}, err
	}
	table := pricing.FeeTable{Fees: make(map[string]pricing.Money, len(options)), DefaultFee: s.defaultFee}
	for _, opt := range options {
		if !opt.Enabled {
			continue
		}
		table.Fees[opt.Method] = opt.Fee
	}
	return table, nil
}

// DefaultOptions builds the seed set from configured fees.
func DefaultOptions(fees map[string]pricing.Money) []Option {
	labels := map[string]string{
		pricing.MethodLocalTransport: "Local Transport",
		pricing.MethodAirCargo:       "Air Cargo",
		pricing.MethodBusCargo:       "Bus Cargo",
	}
	out := make([]Option, 0, len(fees)+1)
	out = append(out, Option{Method: pricing.MethodPickup, Label: "Pickup", Fee: 0, Enabled: true})
	for method, fee := range fees {
		label := labels[method]
		if label == "" {
			label = method
		}
		out = append(out, Option{Method: method, Label: label, Fee: fee, Enabled: true})
	}
	return out
}
