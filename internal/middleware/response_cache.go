package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/cache"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const responseCacheName = "response_cache"

// ResponseCacheMiddleware caches successful GET responses in Redis for ttl.
// Only 2xx responses are stored. X-Cache reports HIT or MISS.
// Cache key is: response:{path}:{query_string}:{user_id}
func ResponseCacheMiddleware(ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			c.Next()
			return
		}

		cacheKey := generateCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery, c.GetString("user_id"))
		ctx := c.Request.Context()

		start := time.Now()
		cached, err := redisClient.Get(ctx, cacheKey)
		RecordCacheOperation("GET", responseCacheName, time.Since(start))

		if err == nil {
			RecordCacheHit(responseCacheName)
			c.Header("X-Cache", "HIT")
			setCacheHeaders(c, ttl)
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		if !cache.IsMiss(err) {
			logger.Log.Debug("Response cache read failed", zap.String("key", cacheKey), zap.Error(err))
		}
		RecordCacheMiss(responseCacheName)

		c.Header("X-Cache", "MISS")
		setCacheHeaders(c, ttl)

		writer := &cachedResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer

		c.Next()

		if writer.statusCode < 200 || writer.statusCode >= 300 || writer.body.Len() == 0 {
			return
		}

		start = time.Now()
		if err := redisClient.SetEx(ctx, cacheKey, writer.body.String(), ttl); err != nil {
			logger.Log.Debug("Failed to write response to cache",
				zap.String("key", cacheKey),
				zap.Error(err),
			)
			return
		}
		RecordCacheOperation("SET", responseCacheName, time.Since(start))
	}
}

// setCacheHeaders marks responses to signed-in callers private. Their bodies
// depend on the caller's tier, so shared caches must not reuse them.
func setCacheHeaders(c *gin.Context, ttl time.Duration) {
	scope := "public"
	if c.GetString("user_id") != "" || c.GetHeader("Authorization") != "" {
		scope = "private"
	}
	c.Header("Cache-Control", fmt.Sprintf("%s, max-age=%d", scope, int(ttl.Seconds())))
	c.Header("Vary", "Authorization")
}

// generateCacheKey creates a cache key from request path, query params, and user ID
func generateCacheKey(path, query, userID string) string {
	key := "response:" + path
	if query != "" {
		key += ":" + query
	}
	if userID != "" {
		key += ":" + userID
	}
	return key
}

// cachedResponseWriter captures the response body for caching
type cachedResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *cachedResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachedResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// CacheInvalidationMiddleware clears cached responses matching patterns after
// a successful mutation
func CacheInvalidationMiddleware(patterns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 400 {
			return
		}

		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			return
		}

		for _, pattern := range patterns {
			deleted, err := redisClient.DeleteByPattern(c.Request.Context(), pattern)
			if err != nil {
				logger.Log.Warn("Failed to invalidate cache",
					zap.String("pattern", pattern),
					zap.Error(err),
				)
				continue
			}
			if deleted > 0 {
				RecordCacheEviction(responseCacheName, int64(deleted))
			}
		}
	}
}
