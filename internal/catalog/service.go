package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/mtaasisi/lats-pos-api/internal/common"
	"github.com/mtaasisi/lats-pos-api/internal/listview"
	"github.com/mtaasisi/lats-pos-api/internal/obs"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

const collectionCacheKey = "catalog:products:collection"

// ProductView is a product payload enriched with profit metrics when both
// prices are positive.
type ProductView struct {
	Product
	Profit *pricing.ProfitMetrics `json:"profit,omitempty"`
}

// ProductInput carries the mutable fields accepted on create and update.
type ProductInput struct {
	Name         string `json:"name" validate:"required"`
	SKU          string `json:"sku" validate:"required"`
	Variant      string `json:"variant"`
	Brand        string `json:"brand"`
	Category     string `json:"category"`
	CostPrice    int64  `json:"costPrice" validate:"gte=0"`
	SellingPrice int64  `json:"sellingPrice" validate:"gte=0"`
	Stock        int    `json:"stock" validate:"gte=0"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
}

// MarkupOption is one quick-markup suggestion derived from a cost price.
type MarkupOption struct {
	Percent      int           `json:"percent"`
	SellingPrice pricing.Money `json:"sellingPrice"`
}

// ProductListResult contains the filtered page plus pagination metadata.
type ProductListResult struct {
	Items   []ProductView
	Total   int
	Page    int
	PerPage int
}

// Service orchestrates catalog persistence, the list pipeline, and caching.
type Service struct {
	store    Store
	cache    *Cache
	log      zerolog.Logger
	pageSize int
	maxLimit int

	// Now is overridable for tests.
	Now func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    Store
	Cache    *Cache
	Logger   zerolog.Logger
	PageSize int
	MaxLimit int
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < pageSize {
		maxLimit = 100
	}
	return &Service{
		store:    cfg.Store,
		cache:    cfg.Cache,
		log:      cfg.Logger,
		pageSize: pageSize,
		maxLimit: maxLimit,
		Now:      time.Now,
	}, nil
}

func (s *Service) view() listview.View[Product] {
	return listview.View[Product]{
		Now: s.Now,
		Fields: map[string]func(Product) any{
			"name":         func(p Product) any { return p.Name },
			"sku":          func(p Product) any { return p.SKU },
			"variant":      func(p Product) any { return p.Variant },
			"brand":        func(p Product) any { return p.Brand },
			"category":     func(p Product) any { return p.Category },
			"status":       func(p Product) any { return p.Status },
			"costPrice":    func(p Product) any { return int64(p.CostPrice) },
			"sellingPrice": func(p Product) any { return int64(p.SellingPrice) },
			"stock":        func(p Product) any { return p.Stock },
			"createdAt":    func(p Product) any { return p.CreatedAt },
		},
	}
}

// ParseCriteria builds pipeline criteria from raw query values. Unknown
// values are kept as-is; the pipeline treats them as no-ops.
func (s *Service) ParseCriteria(values url.Values) listview.Criteria {
	c := listview.Criteria{
		Query:      strings.TrimSpace(values.Get("q")),
		TextFields: []string{"name", "sku", "brand"},
		DateField:  "createdAt",
		DateRange:  listview.RangeAll,
		SortKey:    "createdAt",
		SortOrder:  listview.OrderDesc,
	}
	for _, field := range []string{"brand", "category", "status"} {
		if v := strings.TrimSpace(values.Get(field)); v != "" {
			c.Filters = append(c.Filters, listview.FieldFilter{Field: field, Value: v})
		}
	}
	if v := strings.ToLower(strings.TrimSpace(values.Get("range"))); v != "" {
		c.DateRange = listview.Range(v)
	}
	if v := strings.TrimSpace(values.Get("sort")); v != "" {
		c.SortKey = v
	}
	if v := strings.ToLower(strings.TrimSpace(values.Get("order"))); v == string(listview.OrderAsc) {
		c.SortOrder = listview.OrderAsc
	}
	return c
}

func (s *Service) loadCollection(ctx context.Context) ([]Product, error) {
	var cached []Product
	if ok, err := s.cache.GetJSON(ctx, collectionCacheKey, &cached); err == nil && ok {
		return cached, nil
	}
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, collectionCacheKey, products)
	return products, nil
}

// List loads the product collection, runs the filter-sort pipeline over it,
// and paginates the result.
func (s *Service) List(ctx context.Context, criteria listview.Criteria, page, perPage int) (ProductListResult, error) {
	if perPage < 1 {
		perPage = s.pageSize
	}
	if perPage > s.maxLimit {
		perPage = s.maxLimit
	}
	if page < 1 {
		page = 1
	}
	products, err := s.loadCollection(ctx)
	if err != nil {
		return ProductListResult{}, err
	}
	filtered := s.view().Apply(products, criteria)
	if obs.ListViewEvaluationsTotal != nil {
		obs.ListViewEvaluationsTotal.WithLabelValues("products").Inc()
	}
	pageItems, total := common.Paginate(filtered, page, perPage)
	items := make([]ProductView, 0, len(pageItems))
	for _, p := range pageItems {
		items = append(items, s.toView(p))
	}
	return ProductListResult{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Get fetches a single product.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (ProductView, error) {
	p, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return ProductView{}, s.mapStoreErr(err, "product not found")
	}
	return s.toView(p), nil
}

// Create inserts a new product and invalidates the cached collection.
func (s *Service) Create(ctx context.Context, in ProductInput) (ProductView, error) {
	p, err := s.store.CreateProduct(ctx, productFromInput(uuid.Nil, in))
	if err != nil {
		return ProductView{}, s.mapStoreErr(err, "product not found")
	}
	s.cache.Invalidate(ctx, collectionCacheKey)
	return s.toView(p), nil
}

// Update replaces the mutable fields of a product.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in ProductInput) (ProductView, error) {
	p, err := s.store.UpdateProduct(ctx, productFromInput(id, in))
	if err != nil {
		return ProductView{}, s.mapStoreErr(err, "product not found")
	}
	s.cache.Invalidate(ctx, collectionCacheKey)
	return s.toView(p), nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteProduct(ctx, id); err != nil {
		return s.mapStoreErr(err, "product not found")
	}
	s.cache.Invalidate(ctx, collectionCacheKey)
	return nil
}

// MarkupOptions returns the quick-markup selling prices for a cost price.
func (s *Service) MarkupOptions(cost pricing.Money) []MarkupOption {
	out := make([]MarkupOption, 0, len(pricing.QuickMarkupPresets))
	for _, pct := range pricing.QuickMarkupPresets {
		out = append(out, MarkupOption{Percent: pct, SellingPrice: pricing.QuickMarkup(cost, pct)})
	}
	return out
}

// Categories lists all categories.
func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.store.ListCategories(ctx)
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, name string) (Category, error) {
	c, err := s.store.CreateCategory(ctx, name)
	if err != nil {
		return Category{}, s.mapStoreErr(err, "category not found")
	}
	return c, nil
}

// DeleteCategory removes a category.
func (s *Service) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return s.mapStoreErr(err, "category not found")
	}
	return nil
}

// Brands lists all brands.
func (s *Service) Brands(ctx context.Context) ([]Brand, error) {
	return s.store.ListBrands(ctx)
}

// CreateBrand adds a brand.
func (s *Service) CreateBrand(ctx context.Context, name string) (Brand, error) {
	b, err := s.store.CreateBrand(ctx, name)
	if err != nil {
		return Brand{}, s.mapStoreErr(err, "brand not found")
	}
	return b, nil
}

// DeleteBrand removes a brand.
func (s *Service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteBrand(ctx, id); err != nil {
		return s.mapStoreErr(err, "brand not found")
	}
	return nil
}

func (s *Service) toView(p Product) ProductView {
	view := ProductView{Product: p}
	if metrics, ok := pricing.ComputeProfitMetrics(p.CostPrice, p.SellingPrice); ok {
		view.Profit = &metrics
	}
	return view
}

func productFromInput(id uuid.UUID, in ProductInput) Product {
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = "active"
	}
	return Product{
		ID:           id,
		Name:         strings.TrimSpace(in.Name),
		SKU:          strings.TrimSpace(in.SKU),
		Variant:      strings.TrimSpace(in.Variant),
		Brand:        strings.TrimSpace(in.Brand),
		Category:     strings.TrimSpace(in.Category),
		CostPrice:    in.CostPrice,
		SellingPrice: in.SellingPrice,
		Stock:        in.Stock,
		Status:       status,
	}
}

func (s *Service) mapStoreErr(err error, notFoundMsg string) error {
	if errors.Is(err, ErrNotFound) {
		return common.NotFound(notFoundMsg, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &common.AppError{
			Code:       "CONFLICT",
			Message:    "record already exists",
			HTTPStatus: http.StatusConflict,
			Err:        err,
			Details:    map[string]any{"constraint": pgErr.ConstraintName},
		}
	}
	s.log.Error().Err(err).Msg("catalog store error")
	return fmt.Errorf("catalog: %w", err)
}
