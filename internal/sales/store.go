package sales

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested sale does not exist.
var ErrNotFound = errors.New("sale not found")

// PGStore persists sales in Postgres.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const saleColumns = "id, receipt_number, customer_id, customer_name, delivery_method, status, subtotal, tax, shipping, total, amount_paid, balance, sold_at"

func scanSale(row pgx.Row) (Sale, error) {
	var s Sale
	err := row.Scan(&s.ID, &s.ReceiptNumber, &s.CustomerID, &s.CustomerName, &s.DeliveryMethod, &s.Status,
		&s.Subtotal, &s.Tax, &s.Shipping, &s.Total, &s.AmountPaid, &s.Balance, &s.SoldAt)
	return s, err
}

// Record writes the sale and its items in a single transaction.
func (s *PGStore) Record(ctx context.Context, sale Sale) (Sale, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Sale{}, fmt.Errorf("begin checkout tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx,
		`INSERT INTO sales (id, receipt_number, customer_id, customer_name, delivery_method, status, subtotal, tax, shipping, total, amount_paid, balance, sold_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING `+saleColumns,
		sale.ID, sale.ReceiptNumber, sale.CustomerID, sale.CustomerName, sale.DeliveryMethod, sale.Status,
		sale.Subtotal, sale.Tax, sale.Shipping, sale.Total, sale.AmountPaid, sale.Balance, sale.SoldAt)
	created, err := scanSale(row)
	if err != nil {
		return Sale{}, fmt.Errorf("insert sale: %w", err)
	}
	for _, item := range sale.Items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SaleID = created.ID
		if _, err := tx.Exec(ctx,
			`INSERT INTO sale_items (id, sale_id, product_id, name, variant, qty, unit_price, total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			item.ID, item.SaleID, item.ProductID, item.Name, item.Variant, item.Qty, item.UnitPrice, item.Total); err != nil {
			return Sale{}, fmt.Errorf("insert sale item: %w", err)
		}
		created.Items = append(created.Items, item)
	}
	if err := tx.Commit(ctx); err != nil {
		return Sale{}, fmt.Errorf("commit checkout tx: %w", err)
	}
	return created, nil
}

// List returns sales without their items, newest first.
func (s *PGStore) List(ctx context.Context) ([]Sale, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+saleColumns+" FROM sales ORDER BY sold_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}
	defer rows.Close()
	var out []Sale
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		out = append(out, sale)
	}
	return out, rows.Err()
}

// Get returns one sale with its items.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Sale, error) {
	sale, err := scanSale(s.pool.QueryRow(ctx, "SELECT "+saleColumns+" FROM sales WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sale{}, ErrNotFound
		}
		return Sale{}, fmt.Errorf("get sale: %w", err)
	}
	rows, err := s.pool.Query(ctx,
		"SELECT id, sale_id, product_id, name, variant, qty, unit_price, total FROM sale_items WHERE sale_id = $1", id)
	if err != nil {
		return Sale{}, fmt.Errorf("list sale items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var item SaleItem
		if err := rows.Scan(&item.ID, &item.SaleID, &item.ProductID, &item.Name, &item.Variant, &item.Qty, &item.UnitPrice, &item.Total); err != nil {
			return Sale{}, fmt.Errorf("scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, item)
	}
	return sale, rows.Err()
}
