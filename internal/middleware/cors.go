package middleware

import "net/http"

// CORS allows cross-origin calls to the API. The transactional email
// endpoint is called from browser clients on other origins, so the
// policy is open; auth still rides on cookies and the limiter.
type CORS struct {
	allowedMethods string
	allowedHeaders string
}

func NewCORS() *CORS {
	return &CORS{
		allowedMethods: "GET, POST, PUT, DELETE, OPTIONS",
		allowedHeaders: "Content-Type, Authorization",
	}
}

func (c *CORS) Apply(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", c.allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", c.allowedHeaders)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
