// Package ratelimit throttles mutating requests per client address using a
// fixed one-minute window.
package ratelimit

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"fintrack/internal/log"
)

// Config holds rate limiter configuration.
type Config struct {
	RequestsPerMinute int
}

func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 60,
	}
}

type clientInfo struct {
	windowStart time.Time
	requests    int
}

// Limiter counts requests per client within a one-minute window.
type Limiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	limit   int
	now     func() time.Time
	hits    int64
}

func NewLimiter(cfg Config) *Limiter {
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	return &Limiter{
		clients: make(map[string]*clientInfo),
		limit:   cfg.RequestsPerMinute,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow records a request from key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.clients[key]
	if !ok || now.Sub(c.windowStart) >= time.Minute {
		l.clients[key] = &clientInfo{windowStart: now, requests: 1}
		return true
	}
	c.requests++
	if c.requests > l.limit {
		atomic.AddInt64(&l.hits, 1)
		return false
	}
	return true
}

// CleanExpired drops clients whose window closed more than ten minutes ago.
// It satisfies cache.Cleaner so the janitor can sweep it.
func (l *Limiter) CleanExpired() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-10 * time.Minute)
	removed := 0
	for key, c := range l.clients {
		if c.windowStart.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// ActiveClients returns the number of tracked clients.
func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Hits returns how many requests were rejected.
func (l *Limiter) Hits() int64 {
	return atomic.LoadInt64(&l.hits)
}

// Mutating reports whether the method changes server state.
func Mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// Middleware limits mutating requests; reads are never throttled.
func (l *Limiter) Middleware(extractIP func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if Mutating(r.Method) {
				ip := extractIP(r)
				if !l.Allow(ip) {
					log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).
						WarnContext(r.Context(), "Rate limit exceeded",
							log.FieldClientIP, ip, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
					w.Header().Set("Retry-After", "60")
					http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
