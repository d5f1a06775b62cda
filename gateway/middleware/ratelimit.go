package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimit describes one named bucket's allowance, following the
// teacher's gateway/middleware/ratelimit.go.
type RateLimit struct {
	RatePerSecond float64
	Burst         int
}

type visitor struct {
	limiter *rate.Limiter
}

// RateLimiter enforces per-identity token-bucket limits keyed by API key or
// client IP, one bucket set per named route.
type RateLimiter struct {
	limits   map[string]RateLimit
	mu       sync.RWMutex
	visitors map[string]*visitor
}

func NewRateLimiter(limits map[string]RateLimit) *RateLimiter {
	return &RateLimiter{
		limits:   limits,
		visitors: make(map[string]*visitor),
	}
}

// Middleware returns the rate-limiting middleware for the named bucket; a
// name absent from limits passes through unthrottled.
func (r *RateLimiter) Middleware(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			limit, ok := r.limits[name]
			if !ok {
				next.ServeHTTP(w, req)
				return
			}
			key := name + "|" + clientID(req)
			if !r.obtain(key, limit).Allow() {
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func (r *RateLimiter) obtain(key string, cfg RateLimit) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.visitors[key]; ok {
		return v.limiter
	}
	perSecond := cfg.RatePerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	r.visitors[key] = &visitor{limiter: limiter}
	go r.expireAfter(key, 5*time.Minute)
	return limiter
}

func (r *RateLimiter) expireAfter(key string, d time.Duration) {
	<-time.After(d)
	r.mu.Lock()
	delete(r.visitors, key)
	r.mu.Unlock()
}

func clientID(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get("X-API-Key")); apiKey != "" {
		return "api-key:" + apiKey
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
		if parsed := net.ParseIP(first); parsed != nil {
			return parsed.String()
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
