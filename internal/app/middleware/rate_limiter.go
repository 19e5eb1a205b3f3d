package middleware

import (
	"sync"
	"time"

	"actrec-directory/internal/error/code"
	"actrec-directory/internal/error/response"

	"github.com/gin-gonic/gin"
)

// TokenBucket refills rate tokens per second up to capacity
type TokenBucket struct {
	rate       float64
	capacity   int
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full bucket
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow takes one token if available
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	tb.tokens += elapsed * tb.rate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RateLimiterConfig configures RateLimiter
type RateLimiterConfig struct {
	Rate       float64                   // requests per second
	Burst      int                       // bucket capacity
	ExpiryTime time.Duration             // idle buckets older than this are dropped
	KeyFunc    func(*gin.Context) string // defaults to the client IP
}

// DefaultRateLimiterConfig allows 20 requests per second per IP with bursts of 40
var DefaultRateLimiterConfig = RateLimiterConfig{
	Rate:       20,
	Burst:      40,
	ExpiryTime: time.Hour,
}

type limiterEntry struct {
	bucket   *TokenBucket
	lastSeen time.Time
}

type limiterSet struct {
	mu        sync.Mutex
	cfg       RateLimiterConfig
	buckets   map[string]*limiterEntry
	lastSweep time.Time
}

func (s *limiterSet) get(key string) *TokenBucket {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.cfg.ExpiryTime > 0 && now.Sub(s.lastSweep) > s.cfg.ExpiryTime {
		for k, e := range s.buckets {
			if now.Sub(e.lastSeen) > s.cfg.ExpiryTime {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	entry, ok := s.buckets[key]
	if !ok {
		entry = &limiterEntry{bucket: NewTokenBucket(s.cfg.Rate, s.cfg.Burst)}
		s.buckets[key] = entry
	}
	entry.lastSeen = now
	return entry.bucket
}

// RateLimiter rejects requests beyond the per-key token bucket with 429
func RateLimiter(config ...RateLimiterConfig) gin.HandlerFunc {
	cfg := DefaultRateLimiterConfig
	if len(config) > 0 {
		cfg = config[0]
	}
	if cfg.Rate <= 0 {
		cfg.Rate = DefaultRateLimiterConfig.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultRateLimiterConfig.Burst
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = func(c *gin.Context) string { return c.ClientIP() }
	}

	set := &limiterSet{cfg: cfg, buckets: make(map[string]*limiterEntry), lastSweep: time.Now()}

	return func(c *gin.Context) {
		if !set.get(cfg.KeyFunc(c)).Allow() {
			response.AbortWithMessage(c, code.ErrTooManyRequests, code.GetMessage(code.ErrTooManyRequests))
			return
		}
		c.Next()
	}
}

// IPRateLimiter limits by client IP
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return RateLimiter(RateLimiterConfig{Rate: rate, Burst: burst, ExpiryTime: time.Hour})
}
