package redikit

import (
	"context"
	"net/http"
)

// Middleware runs each request in a batch of cache, so every command
// the handler issues on cache with the request context shares one
// connection. Requests are answered with 503 if no connection can be
// borrowed. The signature matches chi and other net/http routers.
func Middleware(cache *Cache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			served := false
			err := cache.Batch(r.Context(), func(ctx context.Context) error {
				served = true
				next.ServeHTTP(w, r.WithContext(ctx))
				return nil
			})

			if err != nil && !served {
				cache.logger.Printf("Could not pin connection for %s (%s)", cache.name, err.Error())
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
			}
		})
	}
}
