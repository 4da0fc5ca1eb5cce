package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeyFunc derives the rate limit bucket for a request, usually by client
// IP but optionally by route or account.
type KeyFunc func(r *http.Request) string

type RateLimiter struct {
	redis    *redis.Client
	limit    int
	window   time.Duration
	prefix   string
	keyFunc  KeyFunc
	failOpen bool
	skip     func(r *http.Request) bool
}

// NewRateLimiter builds a fixed-window limiter backed by Redis. With
// failOpen set, Redis outages let traffic through instead of rejecting it.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, prefix string, keyFunc KeyFunc, failOpen bool) *RateLimiter {
	if keyFunc == nil {
		keyFunc = func(r *http.Request) string { return GetClientIP(r) }
	}
	return &RateLimiter{
		redis:    redisClient,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		keyFunc:  keyFunc,
		failOpen: failOpen,
	}
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil || (rl.skip != nil && rl.skip(r)) {
			next.ServeHTTP(w, r)
			return
		}

		key := fmt.Sprintf("%s%s", rl.prefix, rl.keyFunc(r))

		allowed, remaining, resetTime, err := rl.isAllowed(r.Context(), key)
		if err != nil {
			if rl.failOpen {
				next.ServeHTTP(w, r)
				return
			}
			writeError(w, http.StatusServiceUnavailable, "Rate limiter unavailable")
			return
		}

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetTime))

		if !allowed {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", resetTime-time.Now().Unix()))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) isAllowed(ctx context.Context, key string) (allowed bool, remaining int, resetTime int64, err error) {
	now := time.Now()
	windowEnd := now.Truncate(rl.window).Add(rl.window)

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, rl.window)

	if _, err = pipe.Exec(ctx); err != nil {
		return true, rl.limit, windowEnd.Unix(), err
	}

	count := int(incrCmd.Val())
	remaining = rl.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= rl.limit, remaining, windowEnd.Unix(), nil
}

// GetClientIP resolves the client address, preferring proxy headers.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := xff
		if idx := strings.IndexByte(xff, ','); idx >= 0 {
			first = xff[:idx]
		}
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// NewAuthRateLimiter limits login and registration attempts per IP.
func NewAuthRateLimiter(redisClient *redis.Client) *RateLimiter {
	return NewRateLimiter(redisClient, 5, time.Minute, "ratelimit:auth:", nil, true)
}

// NewAPIRateLimiter is the general per-IP limit for the API surface.
// Paths outside /api, such as the health probes, are exempt so load
// balancers are never throttled.
func NewAPIRateLimiter(redisClient *redis.Client) *RateLimiter {
	rl := NewRateLimiter(redisClient, 100, time.Minute, "ratelimit:api:", nil, true)
	rl.skip = func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/api/")
	}
	return rl
}

// NewEmailRateLimiter keeps the transactional email endpoint from being
// used as a relay.
func NewEmailRateLimiter(redisClient *redis.Client) *RateLimiter {
	return NewRateLimiter(redisClient, 10, time.Minute, "ratelimit:email:", nil, false)
}
