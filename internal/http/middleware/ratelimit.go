package middleware

import (
	"net/http"
	"sync"
	"time"
)

// callerLimiter is a token-bucket limiter keyed by caller IP. It bounds how
// fast any one caller can drive retrieval turns, which is the main cost
// lever on the search backend.
type callerLimiter struct {
	mu      sync.Mutex
	buckets map[string]*tokenBucket
	rate    float64
	burst   int
}

type tokenBucket struct {
	tokens float64
	last   time.Time
}

func newCallerLimiter(rate float64, burst int) *callerLimiter {
	cl := &callerLimiter{
		buckets: make(map[string]*tokenBucket),
		rate:    rate,
		burst:   burst,
	}
	go cl.evictStale()
	return cl
}

func (cl *callerLimiter) allow(ip string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	now := time.Now()
	b, ok := cl.buckets[ip]
	if !ok {
		b = &tokenBucket{tokens: float64(cl.burst), last: now}
		cl.buckets[ip] = b
	}

	b.tokens += now.Sub(b.last).Seconds() * cl.rate
	if b.tokens > float64(cl.burst) {
		b.tokens = float64(cl.burst)
	}
	b.last = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (cl *callerLimiter) evictStale() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		cl.mu.Lock()
		for ip, b := range cl.buckets {
			if b.last.Before(cutoff) {
				delete(cl.buckets, ip)
			}
		}
		cl.mu.Unlock()
	}
}

// RateLimit rejects requests exceeding rate req/sec (with the given burst)
// per caller IP with 429 Too Many Requests.
func RateLimit(rate float64, burst int) func(http.Handler) http.Handler {
	limiter := newCallerLimiter(rate, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			// chi's RealIP middleware rewrites RemoteAddr, but honor the
			// header directly when running without it.
			if xri := r.Header.Get("X-Real-Ip"); xri != "" {
				ip = xri
			}
			if !limiter.allow(ip) {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
