package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const idemKeyPrefix = "pos:idem:"

// Idem deduplicates write requests carrying an Idempotency-Key header. The
// first request claims the key in Redis; replays within the TTL get a 409.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

func idemKey(header string) string {
	sum := sha256.Sum256([]byte(header))
	return idemKeyPrefix + hex.EncodeToString(sum[:])
}

// Middleware enforces idempotency. Requests without a key pass through.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}

		key := idemKey(header)
		claimed, err := i.R.SetNX(r.Context(), key, "locked", i.TTL).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", map[string]any{"error": err.Error()})
			return
		}
		if !claimed {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}
		defer func() {
			// keep the claim alive even if the handler panics mid-request
			_ = i.R.Expire(context.Background(), key, i.TTL).Err()
		}()
		next.ServeHTTP(w, r)
	})
}
