package customer_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mtaasisi/lats-pos-api/internal/customer"
)

type fakeStore struct {
	customers map[uuid.UUID]customer.Customer
}

func newFakeStore() *fakeStore {
	return &fakeStore{customers: map[uuid.UUID]customer.Customer{}}
}

func (f *fakeStore) add(c customer.Customer) customer.Customer {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.customers[c.ID] = c
	return c
}

func (f *fakeStore) List(context.Context) ([]customer.Customer, error) {
	out := make([]customer.Customer, 0, len(f.customers))
	for _, c := range f.customers {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id uuid.UUID) (customer.Customer, error) {
	c, ok := f.customers[id]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	return c, nil
}

func (f *fakeStore) Create(_ context.Context, c customer.Customer) (customer.Customer, error) {
	for _, existing := range f.customers {
		if existing.Phone == c.Phone {
			return customer.Customer{}, &pgconn.PgError{Code: "23505", ConstraintName: "customers_phone_key"}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) Update(_ context.Context, c customer.Customer) (customer.Customer, error) {
	existing, ok := f.customers[c.ID]
	if !ok {
		return customer.Customer{}, customer.ErrNotFound
	}
	c.CreatedAt = existing.CreatedAt
	f.customers[c.ID] = c
	return c, nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.customers[id]; !ok {
		return customer.ErrNotFound
	}
	delete(f.customers, id)
	return nil
}

func newHandler(t *testing.T, store customer.Store) *customer.Handler {
	t.Helper()
	svc, err := customer.NewService(store, zerolog.Nop(), 20)
	require.NoError(t, err)
	svc.Now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	return customer.NewHandler(svc, nil)
}

func withID(req *http.Request, id uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCustomerListPipeline(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.add(customer.Customer{Name: "Alice Kimaro", Phone: "+255700000001", City: "Dar es Salaam", LoyaltyLevel: "gold", Status: "active", CreatedAt: now.Add(-1 * time.Hour)})
	store.add(customer.Customer{Name: "Bob Mwangi", Phone: "+255700000002", City: "Arusha", LoyaltyLevel: "bronze", Status: "active", CreatedAt: now.Add(-12 * 24 * time.Hour)})
	store.add(customer.Customer{Name: "Carol Temu", Phone: "+255700000003", City: "Dar es Salaam", LoyaltyLevel: "gold", Status: "inactive", CreatedAt: now.Add(-3 * 24 * time.Hour)})
	handler := newHandler(t, store)

	t.Run("phone text query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers?q=0002", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []customer.Customer `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "Bob Mwangi", resp.Data[0].Name)
	})

	t.Run("loyalty and status filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers?loyalty=gold&status=active", nil))
		var resp struct {
			Data []customer.Customer `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "Alice Kimaro", resp.Data[0].Name)
	})

	t.Run("week bucket", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers?range=week", nil))
		require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	})

	t.Run("all filter passes everything", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/customers?loyalty=all&status=all&city=all", nil))
		require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	})
}

func TestCustomerCRUD(t *testing.T) {
	store := newFakeStore()
	handler := newHandler(t, store)

	body := `{"name":"Alice Kimaro","phone":"+255700000001","email":"alice@example.com","city":"Dar es Salaam"}`
	rec := httptest.NewRecorder()
	handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data customer.Customer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "bronze", created.Data.LoyaltyLevel)
	require.Equal(t, "active", created.Data.Status)

	t.Run("duplicate phone is a conflict", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(body)))
		require.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/customers", strings.NewReader(`{"name":"x","phone":"1","email":"nope"}`)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		body := `{"name":"Alice Kimaro","phone":"+255700000001","loyaltyLevel":"gold"}`
		req := withID(httptest.NewRequest(http.MethodPut, "/x", strings.NewReader(body)), created.Data.ID)
		rec := httptest.NewRecorder()
		handler.Update(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var updated struct {
			Data customer.Customer `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		require.Equal(t, "gold", updated.Data.LoyaltyLevel)
	})

	t.Run("missing customer is 404", func(t *testing.T) {
		req := withID(httptest.NewRequest(http.MethodGet, "/x", nil), uuid.New())
		rec := httptest.NewRecorder()
		handler.Get(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		req := withID(httptest.NewRequest(http.MethodDelete, "/x", nil), created.Data.ID)
		rec := httptest.NewRecorder()
		handler.Delete(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}
