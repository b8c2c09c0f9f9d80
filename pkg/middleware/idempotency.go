package middleware

import (
	"fmt"
	"net/http"
	"time"

	"transport-booking/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	idempotencyProcessing = "PROCESSING"
	idempotencyLockTTL    = 30 * time.Second
)

// Idempotency rejects a repeated Idempotency-Key on state-changing requests with 409.
// The key is scoped to the caller and path. A failed (5xx) attempt frees the key again.
func Idempotency(client *redis.Client, ttl time.Duration, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(idempotencyHeader)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			caller := "anonymous"
			if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
				caller = userID.String()
			}
			idemKey := fmt.Sprintf("idempotency:%s:%s:%s", caller, r.URL.Path, key)
			ctx := r.Context()

			acquired, err := client.SetNX(ctx, idemKey, idempotencyProcessing, idempotencyLockTTL).Result()
			if err != nil {
				logger.Warn("Idempotency store unavailable, passing through", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if !acquired {
				state, _ := client.Get(ctx, idemKey).Result()
				w.Header().Set("X-Idempotency-Hit", "true")
				if state == idempotencyProcessing {
					utils.ResponseConflict(w, "request with this idempotency key is in progress", nil)
					return
				}
				utils.ResponseConflict(w, "request with this idempotency key was already processed",
					map[string]string{"previous_status": state})
				return
			}

			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r)

			if rw.statusCode >= http.StatusInternalServerError {
				client.Del(ctx, idemKey)
				return
			}
			client.Set(ctx, idemKey, fmt.Sprintf("%d", rw.statusCode), ttl)
		})
	}
}
