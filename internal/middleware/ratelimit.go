package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter applies a token bucket per caller. Callers are keyed by token
// subject, or by remote IP when the request is unauthenticated.
// State is in-memory; each server instance enforces independently.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	callers map[string]*callerLimiter
	now     func() time.Time
}

type callerLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// NewRateLimiter creates a rate limiter allowing perSecond requests per
// second per caller, with a burst of the same size.
func NewRateLimiter(perSecond int) *RateLimiter {
	if perSecond < 1 {
		perSecond = 1
	}
	return &RateLimiter{
		limit:   rate.Limit(perSecond),
		burst:   perSecond,
		idle:    5 * time.Minute,
		callers: make(map[string]*callerLimiter),
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed now.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	now := rl.now()
	c, ok := rl.callers[key]
	if !ok {
		c = &callerLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.callers[key] = c
	}
	c.lastAccess = now
	rl.mu.Unlock()
	return c.limiter.AllowN(now, 1)
}

// Sweep drops callers idle for longer than the idle window and returns how
// many were removed.
func (rl *RateLimiter) Sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idle)
	removed := 0
	for key, c := range rl.callers {
		if c.lastAccess.Before(cutoff) {
			delete(rl.callers, key)
			removed++
		}
	}
	return removed
}

// Run sweeps idle callers every minute until done is closed.
func (rl *RateLimiter) Run(done <-chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Sweep()
		case <-done:
			return
		}
	}
}

// Middleware returns an HTTP middleware that applies rate limiting.
// Place it after Authorize so authenticated callers are keyed by subject.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return rl.throttle(next, callerKey)
}

// ByRemoteIP keys every request by remote IP, authenticated or not. Place
// it before Authorize so requests with rejected tokens are throttled too.
func (rl *RateLimiter) ByRemoteIP(next http.Handler) http.Handler {
	return rl.throttle(next, func(r *http.Request) string { return "ip:" + remoteIP(r) })
}

func (rl *RateLimiter) throttle(next http.Handler, key func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(key(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error":   "RATE_LIMIT_EXCEEDED",
				"message": "Too many requests. Please slow down.",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func callerKey(r *http.Request) string {
	if ac := GetAuthContext(r.Context()); ac != nil {
		return "sub:" + ac.Subject
	}
	return "ip:" + remoteIP(r)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
