package health_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mtaasisi/lats-pos-api/internal/health"
)

type okChecker struct{}

func (okChecker) PingDB(context.Context, time.Duration) error    { return nil }
func (okChecker) PingRedis(context.Context, time.Duration) error { return nil }

func TestReadinessGateDuringShutdown(t *testing.T) {
	t.Cleanup(func() { health.SetReady(true) })

	handler := health.Handler{Checker: okChecker{}}
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)

	rr := httptest.NewRecorder()
	handler.Ready(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	health.SetReady(false)
	rr = httptest.NewRecorder()
	handler.Ready(rr, req)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), "shutting down")
}
