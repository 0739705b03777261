package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// InMemoryRateLimiter enforces a fixed-window request cap per key.
type InMemoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	size    time.Duration
}

type window struct {
	start time.Time
	count int
}

func NewInMemoryRateLimiter(limit int, size time.Duration) *InMemoryRateLimiter {
	r := &InMemoryRateLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		size:    size,
	}
	go r.cleanup()
	return r
}

func (r *InMemoryRateLimiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	w, ok := r.windows[key]
	if !ok || now.Sub(w.start) >= r.size {
		r.windows[key] = &window{start: now, count: 1}
		return true
	}
	if w.count >= r.limit {
		return false
	}
	w.count++
	return true
}

func (r *InMemoryRateLimiter) cleanup() {
	tick := time.NewTicker(time.Minute)
	for range tick.C {
		r.mu.Lock()
		now := time.Now()
		for k, w := range r.windows {
			if now.Sub(w.start) >= r.size {
				delete(r.windows, k)
			}
		}
		r.mu.Unlock()
	}
}

// RateLimit limits by client IP.
func RateLimit(limiter *InMemoryRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
