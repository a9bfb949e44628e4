package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

// ready gates the readiness probe during startup and graceful shutdown.
// The server flips it off before draining so load balancers stop routing
// new traffic while in-flight requests finish.
var ready atomic.Bool

func init() {
	ready.Store(true)
}

// SetReady toggles the readiness gate.
func SetReady(ok bool) {
	ready.Store(ok)
}

// Checker probes the service's hard dependencies.
type Checker interface {
	PingDB(ctx context.Context, timeout time.Duration) error
	PingRedis(ctx context.Context, timeout time.Duration) error
}

// Handler serves the liveness and readiness endpoints.
type Handler struct {
	Checker      Checker
	DBTimeout    time.Duration
	RedisTimeout time.Duration
}

// Live answers as long as the process is running.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready answers 200 only when the readiness gate is open and both the
// database and Redis respond to a probe.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		http.Error(w, "shutting down", http.StatusServiceUnavailable)
		return
	}
	if h.Checker == nil {
		http.Error(w, "dependencies unavailable", http.StatusServiceUnavailable)
		return
	}

	ctx := r.Context()
	status := map[string]string{
		"db":    probe(func() error { return h.Checker.PingDB(ctx, orDefault(h.DBTimeout, 500*time.Millisecond)) }),
		"redis": probe(func() error { return h.Checker.PingRedis(ctx, orDefault(h.RedisTimeout, 300*time.Millisecond)) }),
	}

	w.Header().Set("Content-Type", "application/json")
	if status["db"] != "ok" || status["redis"] != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_ = json.NewEncoder(w).Encode(status)
}

func probe(ping func() error) string {
	if err := ping(); err != nil {
		return err.Error()
	}
	return "ok"
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
