package customer

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
)

// Input carries the mutable fields accepted on create and update.
type Input struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Email        string `json:"email" validate:"omitempty,email"`
	City         string `json:"city"`
	LoyaltyLevel string `json:"loyaltyLevel" validate:"omitempty,oneof=bronze silver gold platinum"`
	Status       string `json:"status" validate:"omitempty,oneof=active inactive"`
	Notes        string `json:"notes"`
}

// ListResult is a filtered page of customers.
type ListResult struct {
	Items   []Customer
	Total   int
	Page    int
	PerPage int
}

// Service orchestrates customer persistence and the list pipeline.
type Service struct {
	store    Store
	log      zerolog.Logger
	pageSize int

	// Now is overridable for tests.
	Now func() time.Time
}

// NewService constructs a Service.
func NewService(store Store, log zerolog.Logger, pageSize int) (*Service, error) {
	if store == nil {
		return nil, errors.New("customer: store is required")
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return &Service{store: store, log: log, pageSize: pageSize, Now: time.Now}, nil
}

func (s *Service) view() listview.View[Customer] {
	return listview.View[Customer]{
		Now: s.Now,
		Fields: map[string]func(Customer) any{
			"name":         func(c Customer) any { return c.Name },
			"phone":        func(c Customer) any { return c.Phone },
			"email":        func(c Customer) any { return c.Email },
			"city":         func(c Customer) any { return c.City },
			"loyaltyLevel": func(c Customer) any { return c.LoyaltyLevel },
			"status":       func(c Customer) any { return c.Status },
			"createdAt":    func(c Customer) any { return c.CreatedAt },
		},
	}
}

// ParseCriteria builds pipeline criteria from raw query values.
func (s *Service) ParseCriteria(values url.Values) listview.Criteria {
	c := listview.Criteria{
		Query:      strings.TrimSpace(values.Get("q")),
		TextFields: []string{"name", "phone", "email"},
		DateField:  "createdAt",
		DateRange:  listview.RangeAll,
		SortKey:    "createdAt",
		SortOrder:  listview.OrderDesc,
	}
	for param, field := range map[string]string{"loyalty": "loyaltyLevel", "status": "status", "city": "city"} {
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

// List applies the filter-sort pipeline to the customer directory.
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
		obs.ListViewEvaluationsTotal.WithLabelValues("customers").Inc()
	}
	items, total := common.Paginate(filtered, page, perPage)
	return ListResult{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Get returns one customer.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Customer, error) {
	c, err := s.store.Get(ctx, id)
	if err != nil {
		return Customer{}, s.mapStoreErr(err)
	}
	return c, nil
}

// Create inserts a new customer.
func (s *Service) Create(ctx context.Context, in Input) (Customer, error) {
	c, err := s.store.Create(ctx, fromInput(uuid.Nil, in))
	if err != nil {
		return Customer{}, s.mapStoreErr(err)
	}
	return c, nil
}

// Update replaces the mutable fields of a customer.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (Customer, error) {
	c, err := s.store.Update(ctx, fromInput(id, in))
	if err != nil {
		return Customer{}, s.mapStoreErr(err)
	}
	return c, nil
}

// Delete removes a customer.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return s.mapStoreErr(err)
	}
	return nil
}

func fromInput(id uuid.UUID, in Input) Customer {
	loyalty := strings.TrimSpace(in.LoyaltyLevel)
	if loyalty == "" {
		loyalty = "bronze"
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = "active"
	}
	return Customer{
		ID:           id,
		Name:         strings.TrimSpace(in.Name),
		Phone:        strings.TrimSpace(in.Phone),
		Email:        strings.TrimSpace(in.Email),
		City:         strings.TrimSpace(in.City),
		LoyaltyLevel: loyalty,
		Status:       status,
		Notes:        strings.TrimSpace(in.Notes),
	}
}

func (s *Service) mapStoreErr(err error) error {
	if errors.Is(err, ErrNotFound) {
		return common.NotFound("customer not found", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return &common.AppError{
			Code:       "CONFLICT",
			Message:    "phone number already registered",
			HTTPStatus: http.StatusConflict,
			Err:        err,
			Details:    map[string]any{"constraint": pgErr.ConstraintName},
		}
	}
	s.log.Error().Err(err).Msg("customer store error")
	return fmt.Errorf("customer: %w", err)
}
