package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/cache"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/errors"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RedisRateLimitMiddleware creates a fixed-window limiter shared by every
// instance through Redis. When Redis is not configured it delegates to
// fallback, or lets the request through when fallback is nil.
func RedisRateLimitMiddleware(config RateLimitConfig, fallback gin.HandlerFunc) gin.HandlerFunc {
	keyFunc := config.KeyFunc
	if keyFunc == nil {
		keyFunc = clientIPKey
	}
	window := config.Window
	if window <= 0 {
		window = time.Minute
	}

	return func(c *gin.Context) {
		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			if fallback != nil {
				fallback(c)
				return
			}
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", routeLabel(c), keyFunc(c))
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := redisClient.IncrWithExpire(ctx, key, window)
		if err != nil {
			// Fail closed: a broken limiter must not open the API to floods
			logger.Log.Error("Rate limit check failed, rejecting request",
				logger.WithIP(c.ClientIP()),
				zap.Error(err),
			)
			util.RespondWithAPIError(c, errors.ServiceUnavailable("rate limiter"))
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		if count > int64(config.Limit) {
			logger.Log.Warn("Rate limit exceeded",
				logger.WithIP(c.ClientIP()),
				zap.Int("max_requests", config.Limit),
				zap.Int64("current_requests", count),
			)
			RecordRateLimitExceeded(routeLabel(c), c.Request.Method)
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.Header("X-RateLimit-Remaining", "0")
			util.RespondWithAPIError(c, errors.RateLimited(""))
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(int64(config.Limit)-count, 10))

		c.Next()
	}
}
