package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/playground/course-service/pkg/metrics"
	"golang.org/x/time/rate"
)

// MemoryLimiter keeps one token bucket per caller key in process memory.
type MemoryLimiter struct {
	rps     float64
	burst   int
	buckets sync.Map // map[string]*rate.Limiter
}

func NewMemoryLimiter(rps float64, burst int) *MemoryLimiter {
	return &MemoryLimiter{rps: rps, burst: burst}
}

func (m *MemoryLimiter) limiter(key string) *rate.Limiter {
	if v, ok := m.buckets.Load(key); ok {
		return v.(*rate.Limiter)
	}
	v, _ := m.buckets.LoadOrStore(key, rate.NewLimiter(rate.Limit(m.rps), m.burst))
	return v.(*rate.Limiter)
}

// Allow reports whether the caller identified by key may proceed now.
func (m *MemoryLimiter) Allow(key string) bool {
	return m.limiter(key).Allow()
}

// RateLimitMiddleware enforces a token bucket of rps events per second and
// burst tokens per caller. Callers are keyed by subject when AuthMiddleware
// ran first, otherwise by client IP.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	lim := NewMemoryLimiter(rps, burst)
	return func(c *gin.Context) {
		if !lim.Allow(limiterKey(c)) {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}
