package security

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKey gates admin endpoints behind a static key supplied via the
// X-Admin-Key header. Identity management proper lives outside this service;
// the key only fences off the administrative surface.
type APIKey struct {
	Key string
}

// Middleware rejects requests whose admin key does not match. An empty
// configured key disables the gate.
func (a APIKey) Middleware(next http.Handler) http.Handler {
	key := strings.TrimSpace(a.Key)
	if key == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := strings.TrimSpace(r.Header.Get("X-Admin-Key"))
		if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(key)) != 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":"FORBIDDEN","message":"admin key required"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
