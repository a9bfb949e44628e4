package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mtaasisi/lats-pos-api/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if rr.Body.String() != "ok" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name     string
		checker  stubChecker
		wantCode int
		wantDB   string
	}{
		{name: "all healthy", checker: stubChecker{}, wantCode: http.StatusOK, wantDB: "ok"},
		{name: "db down", checker: stubChecker{dbErr: errors.New("connection refused")}, wantCode: http.StatusServiceUnavailable, wantDB: "connection refused"},
		{name: "redis down", checker: stubChecker{redisErr: errors.New("redis timeout")}, wantCode: http.StatusServiceUnavailable, wantDB: "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := health.Handler{Checker: tc.checker, DBTimeout: 50 * time.Millisecond, RedisTimeout: 50 * time.Millisecond}
			rr := httptest.NewRecorder()
			handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d got %d", tc.wantCode, rr.Code)
			}
			var status map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if status["db"] != tc.wantDB {
				t.Fatalf("unexpected db status %q", status["db"])
			}
		})
	}
}

func TestReadyWithoutChecker(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", rr.Code)
	}
}
