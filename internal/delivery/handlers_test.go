package delivery_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/mtaasisi/lats-pos-api/internal/delivery"
	"github.com/mtaasisi/lats-pos-api/internal/pricing"
)

type fakeOptions struct {
	options map[string]delivery.Option
}

func (f *fakeOptions) List(context.Context) ([]delivery.Option, error) {
	out := make([]delivery.Option, 0, len(f.options))
	for _, opt := range f.options {
		out = append(out, opt)
	}
	return out, nil
}

func (f *fakeOptions) Update(_ context.Context, opt delivery.Option) (delivery.Option, error) {
	if _, ok := f.options[opt.Method]; !ok {
		return delivery.Option{}, delivery.ErrNotFound
	}
	f.options[opt.Method] = opt
	return opt, nil
}

func withMethod(req *http.Request, method string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("method", method)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestDeliveryOptionHandlers(t *testing.T) {
	store := &fakeOptions{options: map[string]delivery.Option{
		"pickup":          {Method: "pickup", Label: "Pickup", Fee: 0, Enabled: true},
		"local_transport": {Method: "local_transport", Label: "Local Transport", Fee: 500, Enabled: true},
	}}
	handler := delivery.NewHandler(store)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/delivery-options", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data []delivery.Option `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Data, 2)
	})

	t.Run("update fee", func(t *testing.T) {
		body := `{"label":"Local Transport","fee":800,"enabled":true}`
		req := withMethod(httptest.NewRequest(http.MethodPut, "/api/v1/delivery-options/local_transport", strings.NewReader(body)), "local_transport")
		rec := httptest.NewRecorder()
		handler.Update(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, pricing.Money(800), store.options["local_transport"].Fee)
	})

	t.Run("unknown method is 404", func(t *testing.T) {
		req := withMethod(httptest.NewRequest(http.MethodPut, "/api/v1/delivery-options/drone", strings.NewReader(`{"fee":100}`)), "drone")
		rec := httptest.NewRecorder()
		handler.Update(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("negative fee rejected", func(t *testing.T) {
		req := withMethod(httptest.NewRequest(http.MethodPut, "/api/v1/delivery-options/pickup", strings.NewReader(`{"fee":-5}`)), "pickup")
		rec := httptest.NewRecorder()
		handler.Update(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDefaultOptionsIncludePickup(t *testing.T) {
	options := delivery.DefaultOptions(map[string]pricing.Money{
		"local_transport": 500,
		"air_cargo":       500,
	})
	require.Len(t, options, 3)
	require.Equal(t, "pickup", options[0].Method)
	require.Equal(t, pricing.Money(0), options[0].Fee)
}
