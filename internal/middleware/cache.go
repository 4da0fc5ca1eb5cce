package middleware

import (
	"net/http"
	"strings"
)

// CacheControl adds cache headers to responses. Every surface this server
// exposes is dynamic JSON, so responses are marked uncacheable; shared
// event lookups go through intermediaries and must not be served stale.
type CacheControl struct{}

// NewCacheControl creates a new cache control middleware.
func NewCacheControl() *CacheControl {
	return &CacheControl{}
}

// Apply adds cache headers based on the request path.
func (c *CacheControl) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/"):
			w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
		default:
			// Health probes and anything else.
			w.Header().Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}
