package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/flemzord/gatehouse/internal/security"
)

// bearerAuth returns a chi-compatible middleware that validates a Bearer
// token using constant-time comparison. Attempts are rate-limited through
// the shared limiter's auth bucket.
func bearerAuth(token string, limiter *security.RateLimiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil {
				if err := limiter.Allow(security.BucketAuth); err != nil {
					http.Error(w, "too many requests", http.StatusTooManyRequests)
					return
				}
			}

			auth := r.Header.Get("Authorization")
			if after, ok := strings.CutPrefix(auth, "Bearer "); ok {
				if constantTimeEqual(after, token) {
					next.ServeHTTP(w, r)
					return
				}
			}

			logger.Warn("auth failure",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		})
	}
}

// constantTimeEqual compares two strings in constant time.
func constantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
