package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/errors"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	// Requests per window
	Limit int
	// Window duration
	Window time.Duration
	// KeyFunc picks the bucket for a request. Defaults to the client IP.
	KeyFunc func(c *gin.Context) string
	// Now is the clock used for refills. Defaults to time.Now.
	Now func() time.Time
}

// DefaultRateLimitConfig returns limits for read endpoints
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   100,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// LightboxRateLimitConfig returns limits for lightbox session commands.
// Keyboard navigation produces bursts, so the budget is larger.
func LightboxRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   300,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

// UploadRateLimitConfig returns limits for upload endpoints
func UploadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:   20,
		Window:  time.Minute,
		KeyFunc: clientIPKey,
	}
}

func clientIPKey(c *gin.Context) string {
	return c.ClientIP()
}

// TokenBucket for rate limiting
type TokenBucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a full token bucket
func NewTokenBucket(maxTokens float64, refillRate float64, now time.Time) *TokenBucket {
	return &TokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: now,
	}
}

// Allow takes a token if one is available at now
func (tb *TokenBucket) Allow(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// RetryAfter returns whole seconds until the next token
func (tb *TokenBucket) RetryAfter(now time.Time) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	if tb.tokens >= 1 {
		return 0
	}
	return int(math.Ceil((1 - tb.tokens) / tb.refillRate))
}

// Remaining returns the whole tokens left
func (tb *TokenBucket) Remaining(now time.Time) int {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	return int(tb.tokens)
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	if elapsed > 0 {
		tb.tokens = math.Min(tb.maxTokens, tb.tokens+elapsed*tb.refillRate)
		tb.lastRefill = now
	}
}

// full reports whether the bucket has refilled completely by now
func (tb *TokenBucket) full(now time.Time) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(now)
	return tb.tokens >= tb.maxTokens
}

// RateLimiter keeps one token bucket per key
type RateLimiter struct {
	config      RateLimitConfig
	mu          sync.Mutex
	buckets     map[string]*TokenBucket
	lastCleanup time.Time
}

// NewRateLimiter builds a limiter, filling config defaults
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	if config.Limit <= 0 {
		config.Limit = DefaultRateLimitConfig().Limit
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	if config.KeyFunc == nil {
		config.KeyFunc = clientIPKey
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &RateLimiter{
		config:      config,
		buckets:     make(map[string]*TokenBucket),
		lastCleanup: config.Now(),
	}
}

// bucket returns the bucket for key, dropping idle full buckets at most once
// per window
func (rl *RateLimiter) bucket(key string, now time.Time) *TokenBucket {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastCleanup) >= rl.config.Window {
		for k, b := range rl.buckets {
			if k != key && b.full(now) {
				delete(rl.buckets, k)
			}
		}
		rl.lastCleanup = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		refillRate := float64(rl.config.Limit) / rl.config.Window.Seconds()
		b = NewTokenBucket(float64(rl.config.Limit), refillRate, now)
		rl.buckets[key] = b
	}
	return b
}

// Allow reports whether key may make another request
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.config.Now()
	return rl.bucket(key, now).Allow(now)
}

// Len returns the number of tracked keys
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// Middleware returns the gin handler for this limiter
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	limit := strconv.Itoa(rl.config.Limit)

	return func(c *gin.Context) {
		now := rl.config.Now()
		b := rl.bucket(rl.config.KeyFunc(c), now)

		c.Header("X-RateLimit-Limit", limit)
		if !b.Allow(now) {
			RecordRateLimitExceeded(routeLabel(c), c.Request.Method)
			c.Header("Retry-After", strconv.Itoa(b.RetryAfter(now)))
			c.Header("X-RateLimit-Remaining", "0")
			util.RespondWithAPIError(c, errors.RateLimited(""))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.Itoa(b.Remaining(now)))
		c.Next()
	}
}

// RateLimit returns an in-memory limiter with the default configuration
func RateLimit() gin.HandlerFunc {
	return NewRateLimiter(DefaultRateLimitConfig()).Middleware()
}

// RateLimitSmart returns a Redis-backed limiter when Redis is configured and
// an in-memory limiter otherwise
func RateLimitSmart(config RateLimitConfig) gin.HandlerFunc {
	local := NewRateLimiter(config).Middleware()
	return RedisRateLimitMiddleware(config, local)
}
