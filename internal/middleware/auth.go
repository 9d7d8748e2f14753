package middleware

import (
	"strings"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/auth"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bearerToken extracts the token from "Authorization: Bearer <token>"
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// AuthMiddleware requires a valid bearer token and stores the user in the
// context under "user" and "user_id"
func AuthMiddleware(authService auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			util.RespondUnauthorized(c, "authorization header required")
			return
		}

		user, err := authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			logger.Log.Debug("Rejected bearer token",
				logger.WithRequestID(c.GetString("request_id")),
				zap.Error(err),
			)
			util.RespondUnauthorized(c, "invalid or expired token")
			return
		}

		c.Set(util.ContextUserKey, user)
		c.Set(util.ContextUserIDKey, user.ID)
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is present and lets
// anonymous requests through. An invalid token is treated as anonymous.
func OptionalAuth(authService auth.AuthServiceInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" {
			if user, err := authService.ValidateToken(c.Request.Context(), token); err == nil {
				c.Set(util.ContextUserKey, user)
				c.Set(util.ContextUserIDKey, user.ID)
			}
		}
		c.Next()
	}
}
