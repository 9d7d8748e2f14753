package middleware

import (
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// RequireAdmin ensures the request is authenticated and the user is an admin.
// It must run after AuthMiddleware. The admin flag comes from the user row
// loaded during token validation, not from the token claims.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := util.GetUserFromContext(c)
		if !ok {
			return
		}

		if !user.IsAdmin {
			logger.Log.Warn("Non-admin hit admin route",
				logger.WithUserID(user.ID),
				logger.WithRequestID(c.GetString("request_id")),
			)
			util.RespondForbidden(c, "admin access required")
			return
		}

		c.Next()
	}
}
