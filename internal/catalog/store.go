package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Product is an inventory record. Prices are stored in minor units.
type Product struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	SKU          string        `json:"sku"`
	Variant      string        `json:"variant,omitempty"`
	Brand        string        `json:"brand"`
	Category     string        `json:"category"`
	CostPrice    pricing.Money `json:"costPrice"`
	SellingPrice pricing.Money `json:"sellingPrice"`
	Stock        int           `json:"stock"`
	Status       string        `json:"status"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// Category is an admin-managed product category.
type Category struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Brand is an admin-managed product brand.
type Brand struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Store abstracts catalog persistence.
type Store interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error

	ListBrands(ctx context.Context) ([]Brand, error)
	CreateBrand(ctx context.Context, name string) (Brand, error)
	DeleteBrand(ctx context.Context, id uuid.UUID) error
}

// PGStore is the pgx-backed Store implementation.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const productColumns = "id, name, sku, variant, brand, category, cost_price, selling_price, stock, status, created_at"

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Variant, &p.Brand, &p.Category, &p.CostPrice, &p.SellingPrice, &p.Stock, &p.Status, &p.CreatedAt)
	return p, err
}

// ListProducts returns every product ordered by creation time descending.
func (s *PGStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+productColumns+" FROM products ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetProduct fetches a single product by ID.
func (s *PGStore) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// CreateProduct inserts a product and returns it with generated fields.
func (s *PGStore) CreateProduct(ctx context.Context, p Product) (Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO products (id, name, sku, variant, brand, category, cost_price, selling_price, stock, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+productColumns,
		p.ID, p.Name, p.SKU, p.Variant, p.Brand, p.Category, p.CostPrice, p.SellingPrice, p.Stock, p.Status)
	created, err := scanProduct(row)
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// UpdateProduct updates every mutable column of a product.
func (s *PGStore) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE products
		 SET name = $2, sku = $3, variant = $4, brand = $5, category = $6,
		     cost_price = $7, selling_price = $8, stock = $9, status = $10
		 WHERE id = $1
		 RETURNING `+productColumns,
		p.ID, p.Name, p.SKU, p.Variant, p.Brand, p.Category, p.CostPrice, p.SellingPrice, p.Stock, p.Status)
	updated, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// DeleteProduct removes a product by ID.
func (s *PGStore) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCategories returns all categories sorted by name.
func (s *PGStore) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category.
func (s *PGStore) CreateCategory(ctx context.Context, name string) (Category, error) {
	c := Category{ID: uuid.New(), Name: name}
	if _, err := s.pool.Exec(ctx, "INSERT INTO categories (id, name) VALUES ($1, $2)", c.ID, c.Name); err != nil {
		return Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// DeleteCategory removes a category by ID.
func (s *PGStore) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBrands returns all brands sorted by name.
func (s *PGStore) ListBrands(ctx context.Context) ([]Brand, error) {
	rows, err := s.pool.Query(ctx, "SELECT id, name FROM brands ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	defer rows.Close()
	var out []Brand
	for rows.Next() {
		var b Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("scan brand: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBrand inserts a brand.
func (s *PGStore) CreateBrand(ctx context.Context, name string) (Brand, error) {
	b := Brand{ID: uuid.New(), Name: name}
	if _, err := s.pool.Exec(ctx, "INSERT INTO brands (id, name) VALUES ($1, $2)", b.ID, b.Name); err != nil {
		return Brand{}, fmt.Errorf("create brand: %w", err)
	}
	return b, nil
}

// DeleteBrand removes a brand by ID.
func (s *PGStore) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM brands WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete brand: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
