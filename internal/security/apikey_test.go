package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyMiddleware(t *testing.T) {
	handler := APIKey{Key: "secret"}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/admin/backups", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without key, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admin/backups", nil)
	req.Header.Set("X-Admin-Key", "secret")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with key, got %d", rr.Code)
	}
}

func TestAPIKeyMiddlewareDisabledWhenEmpty(t *testing.T) {
	handler := APIKey{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/backups", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through with empty key, got %d", rr.Code)
	}
}
