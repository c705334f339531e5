package middleware

import (
	"context"
	"net/http"
	"time"
)

// Deadline bounds every request with a context deadline. Store and token
// operations observe the context, so a timed-out request aborts cleanly
// instead of holding a connection indefinitely.
func Deadline(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
