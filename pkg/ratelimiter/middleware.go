package ratelimiter

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linkaura/linkaura/pkg/logger"
)

// KeyFunc extracts a rate limit key from the request. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

// Middleware rejects requests over the limit with 429 and sets the
// X-RateLimit-* headers. Limiter errors fail open and are logged.
func Middleware(l Limiter, keyFunc KeyFunc, log *slog.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Discard()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := l.Allow(r.Context(), key)
			if err != nil {
				log.ErrorContext(r.Context(), "rate limiter unavailable", logger.Component("ratelimiter"), logger.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed() {
				if secs := int(res.RetryAfter().Seconds()); secs > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(secs))
				}
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
