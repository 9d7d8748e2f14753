package util

import (
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware
const (
	ContextUserKey   = "user"
	ContextUserIDKey = "user_id"
)

// GetUserFromContext extracts the authenticated user from the Gin context.
// If the user is not authenticated, it responds with 401 Unauthorized.
func GetUserFromContext(c *gin.Context) (*models.User, bool) {
	user, ok := OptionalUser(c)
	if !ok {
		RespondUnauthorized(c)
		return nil, false
	}
	return user, true
}

// OptionalUser returns the authenticated user if there is one, without
// responding
func OptionalUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, false
	}
	return user, true
}

// ViewerTier returns the membership tier of the caller, free when anonymous
func ViewerTier(c *gin.Context) string {
	if user, ok := OptionalUser(c); ok && user.Tier != "" {
		return user.Tier
	}
	return models.TierFree
}

// ViewerID returns the caller's user id, empty when anonymous
func ViewerID(c *gin.Context) string {
	if user, ok := OptionalUser(c); ok {
		return user.ID
	}
	return ""
}
