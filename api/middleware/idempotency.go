package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmercado-dev/shopforge-backend/api/responses"
	pkgerrors "github.com/dmercado-dev/shopforge-backend/pkg/errors"
	"github.com/dmercado-dev/shopforge-backend/pkg/logger"
	"github.com/dmercado-dev/shopforge-backend/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

// Idempotency reserves the request's Idempotency-Key in Redis before letting
// a mutating handler run. A replayed key is rejected outright; the client
// retries reads instead of re-submitting. The header is optional: requests
// without it pass through unguarded.
func Idempotency(store redis.IdempotencyStore, logg *logger.Logger, scope string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(idempotencyHeader)
			if key == "" || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			redisKey := store.IdempotencyKey(scope, TenantID(ctx).String()+":"+key)
			reserved, err := store.SetNX(ctx, redisKey, "1", idempotencyTTL)
			if err != nil {
				// the guard degrades open: an unavailable Redis must not
				// block checkouts
				logg.Warn(ctx, "idempotency reservation unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !reserved {
				responses.WriteError(ctx, logg, w,
					pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key already used"))
				return
			}

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			// a server-side failure releases the key so the client can retry
			if wrapped.status >= http.StatusInternalServerError {
				if err := store.Del(ctx, redisKey); err != nil && !errors.Is(err, redis.ErrNotFound) {
					logg.Warn(ctx, "failed to release idempotency key")
				}
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
