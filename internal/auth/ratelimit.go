package auth

import (
	"net/http"
	"sync"
	"time"

	"portfolio-api/internal/httputil"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

// DefaultMaxClients bounds how many client buckets are tracked at once. The
// least recently seen client is evicted first.
const DefaultMaxClients = 10000

// RateLimiter keeps one token bucket per client IP. The IP is the
// connection's peer address unless forwarded headers are trusted.
type RateLimiter struct {
	mu             sync.Mutex
	limiters       *lru.Cache[string, *rate.Limiter]
	rate           rate.Limit
	burst          int
	maxClients     int
	trustForwarded bool
}

type RateLimiterOption func(*RateLimiter)

// WithForwardedFor keys buckets on X-Forwarded-For / X-Real-IP. Only safe
// behind a proxy that overwrites those headers.
func WithForwardedFor() RateLimiterOption {
	return func(rl *RateLimiter) {
		rl.trustForwarded = true
	}
}

func WithMaxClients(n int) RateLimiterOption {
	return func(rl *RateLimiter) {
		if n > 0 {
			rl.maxClients = n
		}
	}
}

// NewRateLimiter allows requestsPerMinute sustained requests per IP with the
// given burst.
func NewRateLimiter(requestsPerMinute, burst int, opts ...RateLimiterOption) *RateLimiter {
	if requestsPerMinute < 1 {
		requestsPerMinute = 1
	}
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		rate:       rate.Every(time.Minute / time.Duration(requestsPerMinute)),
		burst:      burst,
		maxClients: DefaultMaxClients,
	}
	for _, opt := range opts {
		opt(rl)
	}

	// lru.New only fails for a non-positive size.
	rl.limiters, _ = lru.New[string, *rate.Limiter](rl.maxClients)
	return rl
}

func (rl *RateLimiter) limiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	l, ok := rl.limiters.Get(ip)
	if !ok {
		l = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters.Add(ip, l)
	}
	return l
}

func (rl *RateLimiter) Allow(ip string) bool {
	return rl.limiter(ip).Allow()
}

// Len reports how many client buckets are tracked.
func (rl *RateLimiter) Len() int {
	return rl.limiters.Len()
}

func (rl *RateLimiter) clientKey(r *http.Request) string {
	if rl.trustForwarded {
		return httputil.ClientIP(r)
	}
	return httputil.RemoteIP(r)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(rl.clientKey(r)) {
			httputil.RespondWithError(w, http.StatusTooManyRequests, "Too many login attempts, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}
