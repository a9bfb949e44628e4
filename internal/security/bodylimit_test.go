package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimitPassesSmallBody(t *testing.T) {
	var got string
	handler := BodyLimit{Max: 16}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		got = string(data)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("hello")))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got != "hello" {
		t.Fatalf("body not passed through, got %q", got)
	}
}

func TestBodyLimitRejectsOversized(t *testing.T) {
	handler := BodyLimit{Max: 4}.Middleware(okHandler())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("too many bytes")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
}

func TestBodyLimitTrustsDeclaredLength(t *testing.T) {
	handler := BodyLimit{Max: 4}.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("1234"))
	req.ContentLength = 4096
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from declared length, got %d", rr.Code)
	}
}

func TestBodyLimitDisabled(t *testing.T) {
	handler := BodyLimit{}.Middleware(okHandler())
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader("anything goes")))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
