package sales_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mtaasisi/lats-pos-api/internal/pricing"
	"github.com/mtaasisi/lats-pos-api/internal/sales"
)

type fakeReader struct {
	sales []sales.Sale
}

func (f *fakeReader) List(context.Context) ([]sales.Sale, error) {
	return append([]sales.Sale(nil), f.sales...), nil
}

func (f *fakeReader) Get(_ context.Context, id uuid.UUID) (sales.Sale, error) {
	for _, s := range f.sales {
		if s.ID == id {
			return s, nil
		}
	}
	return sales.Sale{}, sales.ErrNotFound
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 14, 0, 0, 0, time.UTC)
}

func seedSales() *fakeReader {
	now := fixedNow()
	return &fakeReader{sales: []sales.Sale{
		{
			ID: uuid.New(), ReceiptNumber: "RCP-A1", CustomerName: "Alice",
			DeliveryMethod: "pickup", Status: sales.StatusCompleted,
			Total: 2320, SoldAt: now.Add(-2 * time.Hour),
		},
		{
			ID: uuid.New(), ReceiptNumber: "RCP-B2", CustomerName: "Bob",
			DeliveryMethod: "local_transport", Status: sales.StatusCompleted,
			Total: 5000, SoldAt: now.Add(-3 * 24 * time.Hour),
		},
		{
			ID: uuid.New(), ReceiptNumber: "RCP-C3", CustomerName: "Carol",
			DeliveryMethod: "pickup", Status: sales.StatusRefunded,
			Total: 900, SoldAt: now.Add(-10 * 24 * time.Hour),
		},
		{
			ID: uuid.New(), ReceiptNumber: "RCP-D4", CustomerName: "Dan",
			DeliveryMethod: "bus_cargo", Status: sales.StatusCompleted,
			Total: 7000, SoldAt: now.Add(-40 * 24 * time.Hour),
		},
	}}
}

func newService(t *testing.T, store sales.Reader, rdb *redis.Client) *sales.Service {
	t.Helper()
	svc, err := sales.NewService(sales.ServiceConfig{
		Store:    store,
		Redis:    rdb,
		CacheTTL: time.Minute,
		PageSize: 20,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	svc.Now = fixedNow
	return svc
}

func TestSalesListPipeline(t *testing.T) {
	svc := newService(t, seedSales(), nil)
	ctx := context.Background()

	t.Run("text query over receipt number", func(t *testing.T) {
		criteria := svc.ParseCriteria(url.Values{"q": {"rcp-b2"}})
		result, err := svc.List(ctx, criteria, 1, 20)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		require.Equal(t, "Bob", result.Items[0].CustomerName)
	})

	t.Run("method and status filters", func(t *testing.T) {
		criteria := svc.ParseCriteria(url.Values{"method": {"pickup"}, "status": {"completed"}})
		result, err := svc.List(ctx, criteria, 1, 20)
		require.NoError(t, err)
		require.Len(t, result.Items, 1)
		require.Equal(t, "RCP-A1", result.Items[0].ReceiptNumber)
	})

	t.Run("week bucket is a rolling window", func(t *testing.T) {
		criteria := svc.ParseCriteria(url.Values{"range": {"week"}})
		result, err := svc.List(ctx, criteria, 1, 20)
		require.NoError(t, err)
		require.Len(t, result.Items, 2)
	})

	t.Run("default sort is soldAt descending", func(t *testing.T) {
		criteria := svc.ParseCriteria(url.Values{})
		result, err := svc.List(ctx, criteria, 1, 20)
		require.NoError(t, err)
		require.Len(t, result.Items, 4)
		require.Equal(t, "RCP-A1", result.Items[0].ReceiptNumber)
		require.Equal(t, "RCP-D4", result.Items[3].ReceiptNumber)
	})

	t.Run("sort by total ascending", func(t *testing.T) {
		criteria := svc.ParseCriteria(url.Values{"sort": {"total"}, "order": {"asc"}})
		result, err := svc.List(ctx, criteria, 1, 20)
		require.NoError(t, err)
		require.Equal(t, pricing.Money(900), result.Items[0].Total)
		require.Equal(t, pricing.Money(7000), result.Items[3].Total)
	})
}

func TestSalesSummary(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := seedSales()
	svc := newService(t, store, rdb)
	ctx := context.Background()

	summary, err := svc.Summarize(ctx)
	require.NoError(t, err)
	// refunded sales never count toward revenue
	require.Equal(t, 1, summary.Today.Count)
	require.Equal(t, pricing.Money(2320), summary.Today.Revenue)
	require.Equal(t, 2, summary.Week.Count)
	require.Equal(t, pricing.Money(7320), summary.Week.Revenue)
	require.Equal(t, 2, summary.Month.Count)
	require.Equal(t, pricing.Money(7320), summary.Month.Revenue)

	t.Run("served from cache until invalidated", func(t *testing.T) {
		store.sales = store.sales[:1]
		cached, err := svc.Summarize(ctx)
		require.NoError(t, err)
		require.Equal(t, summary, cached)

		svc.InvalidateSummary(ctx)
		fresh, err := svc.Summarize(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, fresh.Week.Count)
	})
}

func TestSalesHandlers(t *testing.T) {
	store := seedSales()
	svc := newService(t, store, nil)
	handler := sales.NewHandler(svc)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sales?status=completed", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "3", rec.Header().Get("X-Total-Count"))
	})

	t.Run("summary", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sales/summary", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data sales.Summary `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, 1, resp.Data.Today.Count)
	})
}
