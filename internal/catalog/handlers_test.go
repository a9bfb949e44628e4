package catalog_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mtaasisi/lats-pos-api/internal/catalog"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

type productsResponse struct {
	Data       []catalog.ProductView `json:"data"`
	Pagination struct {
		Page       int `json:"page"`
		PerPage    int `json:"per_page"`
		TotalItems int `json:"total_items"`
	} `json:"pagination"`
}

type productResponse struct {
	Data catalog.ProductView `json:"data"`
}

type markupResponse struct {
	Data []catalog.MarkupOption `json:"data"`
}

func newTestHandler(t *testing.T, store catalog.Store) *catalog.Handler {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{
		Store:    store,
		Logger:   zerolog.Nop(),
		PageSize: 20,
		MaxLimit: 100,
	})
	require.NoError(t, err)
	svc.Now = func() time.Time {
		return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	}
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc})
}

func TestProductListPipeline(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	store.addProduct(catalog.Product{
		Name: "iPhone 13", SKU: "IP13", Brand: "Apple", Category: "phones",
		CostPrice: 1000, SellingPrice: 1500, Stock: 4, Status: "active",
		CreatedAt: now.Add(-2 * time.Hour),
	})
	store.addProduct(catalog.Product{
		Name: "Galaxy S21", SKU: "GS21", Brand: "Samsung", Category: "phones",
		CostPrice: 800, SellingPrice: 1200, Stock: 2, Status: "active",
		CreatedAt: now.Add(-10 * 24 * time.Hour),
	})
	store.addProduct(catalog.Product{
		Name: "Charger", SKU: "CHG1", Brand: "Anker", Category: "accessories",
		CostPrice: 0, SellingPrice: 300, Stock: 20, Status: "inactive",
		CreatedAt: now.Add(-1 * time.Hour),
	})
	handler := newTestHandler(t, store)

	t.Run("text query", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?q=iphone", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "iPhone 13", resp.Data[0].Name)
	})

	t.Run("all filters pass everything through", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?brand=all&category=all&status=all&range=all", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	})

	t.Run("brand and status filters", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?brand=Samsung&status=active", nil))
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, "GS21", resp.Data[0].SKU)
	})

	t.Run("week bucket excludes older records", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?range=week", nil))
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
		for _, item := range resp.Data {
			require.NotEqual(t, "Galaxy S21", item.Name)
		}
	})

	t.Run("sort by selling price ascending", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?sort=sellingPrice&order=asc", nil))
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 3)
		require.Equal(t, "Charger", resp.Data[0].Name)
		require.Equal(t, "iPhone 13", resp.Data[2].Name)
	})

	t.Run("profit metrics attached only for positive prices", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?sort=name&order=asc", nil))
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 3)
		byName := map[string]catalog.ProductView{}
		for _, item := range resp.Data {
			byName[item.Name] = item
		}
		require.Nil(t, byName["Charger"].Profit)
		require.NotNil(t, byName["iPhone 13"].Profit)
		require.Equal(t, pricing.Money(500), byName["iPhone 13"].Profit.Profit)
		require.InDelta(t, 33.33, byName["iPhone 13"].Profit.MarginPct, 0.01)
		require.InDelta(t, 50.0, byName["iPhone 13"].Profit.MarkupPct, 0.01)
	})

	t.Run("pagination", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=2&page=2", nil))
		var resp productsResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 1)
		require.Equal(t, 3, resp.Pagination.TotalItems)
		require.Equal(t, 2, resp.Pagination.Page)
	})
}

func TestProductCRUD(t *testing.T) {
	store := newFakeStore()
	handler := newTestHandler(t, store)

	body := `{"name":"Screen Protector","sku":"SP01","brand":"Generic","category":"accessories","costPrice":100,"sellingPrice":250,"stock":50}`
	rec := httptest.NewRecorder()
	handler.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)
	var created productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "active", created.Data.Status)
	require.NotNil(t, created.Data.Profit)
	require.Equal(t, pricing.Money(150), created.Data.Profit.Profit)

	t.Run("validation failure", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.CreateProduct(rec, httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"sku":"X","costPrice":-5}`)))
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		body := `{"name":"Screen Protector","sku":"SP01","brand":"Generic","category":"accessories","costPrice":100,"sellingPrice":300,"stock":45,"status":"active"}`
		req := withID(httptest.NewRequest(http.MethodPut, "/api/v1/products/"+created.Data.ID.String(), strings.NewReader(body)), created.Data.ID)
		rec := httptest.NewRecorder()
		handler.UpdateProduct(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var updated productResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		require.Equal(t, pricing.Money(300), updated.Data.SellingPrice)
	})

	t.Run("get missing returns 404", func(t *testing.T) {
		req := withID(httptest.NewRequest(http.MethodGet, "/api/v1/products/x", nil), uuid.New())
		rec := httptest.NewRecorder()
		handler.GetProduct(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		req := withID(httptest.NewRequest(http.MethodDelete, "/api/v1/products/x", nil), created.Data.ID)
		rec := httptest.NewRecorder()
		handler.DeleteProduct(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestMarkupEndpoint(t *testing.T) {
	handler := newTestHandler(t, newFakeStore())

	rec := httptest.NewRecorder()
	handler.Markup(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/markup?cost=1000", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp markupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 4)
	require.Equal(t, 10, resp.Data[0].Percent)
	require.Equal(t, pricing.Money(1100), resp.Data[0].SellingPrice)
	require.Equal(t, pricing.Money(1500), resp.Data[3].SellingPrice)

	t.Run("rejects missing cost", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Markup(rec, httptest.NewRequest(http.MethodGet, "/api/v1/products/markup", nil))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCategoryAndBrandAdmin(t *testing.T) {
	handler := newTestHandler(t, newFakeStore())

	rec := httptest.NewRecorder()
	handler.CreateCategory(rec, httptest.NewRequest(http.MethodPost, "/api/v1/categories", strings.NewReader(`{"name":"Phones"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.CreateBrand(rec, httptest.NewRequest(http.MethodPost, "/api/v1/brands", strings.NewReader(`{"name":"Apple"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	handler.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var cats struct {
		Data []catalog.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	require.Len(t, cats.Data, 1)
	require.Equal(t, "Phones", cats.Data[0].Name)

	t.Run("rejects empty name", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.CreateBrand(rec, httptest.NewRequest(http.MethodPost, "/api/v1/brands", strings.NewReader(`{"name":"  "}`)))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func withID(req *http.Request, id uuid.UUID) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id.String())
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type fakeStore struct {
	products   map[uuid.UUID]catalog.Product
	categories map[uuid.UUID]catalog.Category
	brands     map[uuid.UUID]catalog.Brand
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:   map[uuid.UUID]catalog.Product{},
		categories: map[uuid.UUID]catalog.Category{},
		brands:     map[uuid.UUID]catalog.Brand{},
	}
}

func (f *fakeStore) addProduct(p catalog.Product) catalog.Product {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.products[p.ID] = p
	return p
}

func (f *fakeStore) ListProducts(context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id uuid.UUID) (catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	existing, ok := f.products[p.ID]
	if !ok {
		return catalog.Product{}, catalog.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id uuid.UUID) error {
	if _, ok := f.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) ListCategories(context.Context) ([]catalog.Category, error) {
	out := make([]catalog.Category, 0, len(f.categories))
	for _, c := range f.categories {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) CreateCategory(_ context.Context, name string) (catalog.Category, error) {
	for _, c := range f.categories {
		if strings.EqualFold(c.Name, name) {
			return catalog.Category{}, fmt.Errorf("duplicate category %q", name)
		}
	}
	c := catalog.Category{ID: uuid.New(), Name: name}
	f.categories[c.ID] = c
	return c, nil
}

func (f *fakeStore) DeleteCategory(_ context.Context, id uuid.UUID) error {
	if _, ok := f.categories[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeStore) ListBrands(context.Context) ([]catalog.Brand, error) {
	out := make([]catalog.Brand, 0, len(f.brands))
	for _, b := range f.brands {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeStore) CreateBrand(_ context.Context, name string) (catalog.Brand, error) {
	b := catalog.Brand{ID: uuid.New(), Name: name}
	f.brands[b.ID] = b
	return b, nil
}

func (f *fakeStore) DeleteBrand(_ context.Context, id uuid.UUID) error {
	if _, ok := f.brands[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.brands, id)
	return nil
}
