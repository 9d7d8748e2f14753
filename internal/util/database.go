package util

import (
	"errors"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// HandleDBError handles repository errors and sends appropriate HTTP responses
// Returns true if the error was handled (and response was sent), false otherwise
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, repository.ErrNotFound) ||
		errors.Is(err, repository.ErrUserNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}
	if errors.Is(err, repository.ErrInvalidInput) {
		RespondBadRequest(c, "invalid "+resourceName)
		return true
	}

	RespondInternalError(c, "failed to load "+resourceName, err)
	return true
}
