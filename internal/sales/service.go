package sales

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/mtaasisi/lats-pos-api/internal/common"
	"github.com/mtaasisi/lats-pos-api/internal/listview"
	"github.com/mtaasisi/lats-pos-api/internal/obs"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

const summaryCacheKey = "sales:summary"

// Reader abstracts sale lookups for the service.
type Reader interface {
	List(ctx context.Context) ([]Sale, error)
	Get(ctx context.Context, id uuid.UUID) (Sale, error)
}

// Bucket aggregates one rolling window.
type Bucket struct {
	Count   int           `json:"count"`
	Revenue pricing.Money `json:"revenue"`
}

// Summary reports today/week/month sales figures. The week and month windows
// are rolling and overlap the today bucket.
type Summary struct {
	Today Bucket `json:"today"`
	Week  Bucket `json:"week"`
	Month Bucket `json:"month"`
}

// ListResult is a filtered page of sales.
type ListResult struct {
	Items   []Sale
	Total   int
	Page    int
	PerPage int
}

// Service serves sales history and summaries.
type Service struct {
	store    Reader
	redis    *redis.Client
	cacheTTL time.Duration
	pageSize int
	log      zerolog.Logger

	// Now is overridable for tests.
	Now func() time.Time
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store    Reader
	Redis    *redis.Client
	CacheTTL time.Duration
	PageSize int
	Logger   zerolog.Logger
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("sales: store is required")
	}
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	return &Service{
		store:    cfg.Store,
		redis:    cfg.Redis,
		cacheTTL: cfg.CacheTTL,
		pageSize: pageSize,
		log:      cfg.Logger,
		Now:      time.Now,
	}, nil
}

func (s *Service) view() listview.View[Sale] {
	return listview.View[Sale]{
		Now: s.Now,
		Fields: map[string]func(Sale) any{
			"receiptNumber":  func(sa Sale) any { return sa.ReceiptNumber },
			"customerName":   func(sa Sale) any { return sa.CustomerName },
			"deliveryMethod": func(sa Sale) any { return sa.DeliveryMethod },
			"status":         func(sa Sale) any { return sa.Status },
			"total":          func(sa Sale) any { return int64(sa.Total) },
			"soldAt":         func(sa Sale) any { return sa.SoldAt },
		},
	}
}

// ParseCriteria builds pipeline criteria from raw query values.
func (s *Service) ParseCriteria(values url.Values) listview.Criteria {
	c := listview.Criteria{
		Query:      strings.TrimSpace(values.Get("q")),
		TextFields: []string{"customerName", "receiptNumber"},
		DateField:  "soldAt",
		DateRange:  listview.RangeAll,
		SortKey:    "soldAt",
		SortOrder:  listview.OrderDesc,
	}
	for param, field := range map[string]string{"method": "deliveryMethod", "status": "status"} {
		if v := strings.TrimSpace(values.Get(param)); v != "" {
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

// List applies the filter-sort pipeline to the sales history.
func (s *Service) List(ctx context.Context, criteria listview.Criteria, page, perPage int) (ListResult, error) {
	if perPage < 1 {
		perPage = s.pageSize
	}
	if page < 1 {
		page = 1
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return ListResult{}, err
	}
	filtered := s.view().Apply(all, criteria)
	if obs.ListViewEvaluationsTotal != nil {
		obs.ListViewEvaluationsTotal.WithLabelValues("sales").Inc()
	}
	items, total := common.Paginate(filtered, page, perPage)
	return ListResult{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Get returns one sale with items.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Sale, error) {
	sale, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Sale{}, common.NotFound("sale not found", err)
		}
		return Sale{}, err
	}
	return sale, nil
}

// Summarize computes rolling today/week/month figures, served from a short
// lived Redis cache when available.
func (s *Service) Summarize(ctx context.Context) (Summary, error) {
	if s.redis != nil {
		if data, err := s.redis.Get(ctx, summaryCacheKey).Bytes(); err == nil {
			var cached Summary
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		}
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return Summary{}, err
	}
	view := s.view()
	summary := Summary{
		Today: bucketOf(view.FilterDate(all, "soldAt", listview.RangeToday)),
		Week:  bucketOf(view.FilterDate(all, "soldAt", listview.RangeWeek)),
		Month: bucketOf(view.FilterDate(all, "soldAt", listview.RangeMonth)),
	}
	if s.redis != nil {
		if data, err := json.Marshal(summary); err == nil {
			if err := s.redis.Set(ctx, summaryCacheKey, data, s.cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("cache sales summary")
			}
		}
	}
	return summary, nil
}

// InvalidateSummary drops the cached summary after a new sale lands.
func (s *Service) InvalidateSummary(ctx context.Context) {
	if s.redis == nil {
		return
	}
	_ = s.redis.Del(ctx, summaryCacheKey).Err()
}

func bucketOf(sales []Sale) Bucket {
	var b Bucket
	for _, sale := range sales {
		if sale.Status != StatusCompleted {
			continue
		}
		b.Count++
		b.Revenue += sale.Total
	}
	return b
}
