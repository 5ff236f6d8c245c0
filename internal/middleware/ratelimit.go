package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type Limiter interface {
	Allow(key string, limit int, window time.Duration) bool
}

// MemoryLimiter keeps one token bucket per key. A bucket refills limit tokens
// per window and starts full.
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{limiters: make(map[string]*visitor), now: time.Now}
}

func (m *MemoryLimiter) Allow(key string, limit int, window time.Duration) bool {
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	v, ok := m.limiters[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit)}
		m.limiters[key] = v
	}
	v.lastSeen = now
	m.evict(now, window)
	return v.limiter.AllowN(now, 1)
}

// evict drops buckets idle for several windows; they would be full again.
func (m *MemoryLimiter) evict(now time.Time, window time.Duration) {
	if len(m.limiters) < 1024 {
		return
	}
	for key, v := range m.limiters {
		if now.Sub(v.lastSeen) > 3*window {
			delete(m.limiters, key)
		}
	}
}

// RateLimit answers 429 once the client IP exceeds limit requests per window
// on the routes it guards. The key includes the route so separate endpoints
// keep separate budgets.
func RateLimit(limiter Limiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := "ratelimit:" + c.FullPath() + ":" + c.ClientIP()
		if !limiter.Allow(key, limit, window) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please try again later"})
			return
		}
		c.Next()
	}
}
