package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// tokenBucket is a per-client bucket refilled at a fixed rate.
type tokenBucket struct {
	tokens   float64
	lastSeen time.Time
}

// RateLimiter enforces a per-client-IP token bucket.  Buckets idle longer
// than the cleanup window are evicted to bound memory.
type RateLimiter struct {
	rps   float64
	burst float64

	mu      sync.Mutex
	buckets map[string]*tokenBucket
	now     func() time.Time
}

const bucketIdleEviction = 10 * time.Minute

// NewRateLimiter builds a limiter allowing rps sustained requests per second
// with the given burst headroom.  rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rps,
		burst:   float64(burst),
		buckets: make(map[string]*tokenBucket),
		now:     time.Now,
	}
}

// Allow reports whether a request from key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &tokenBucket{tokens: l.burst, lastSeen: now}
		l.buckets[key] = b
	}

	b.tokens += now.Sub(b.lastSeen).Seconds() * l.rps
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--

	if len(l.buckets) > 1024 {
		l.evictIdle(now)
	}
	return true
}

func (l *RateLimiter) evictIdle(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > bucketIdleEviction {
			delete(l.buckets, key)
		}
	}
}

// RateLimit rejects over-limit requests with 429.
func RateLimit(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "COMMON_007",
				"message": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
