package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "github.com/Tec94/sickass-artist-platform-sub000/internal/errors"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/preload"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// imageViewer identifies whose image display a load belongs to: the signed-in
// user, else the lightbox session the client names, else the client address
func imageViewer(c *gin.Context) string {
	if id := util.ViewerID(c); id != "" {
		return "user:" + id
	}
	if session := c.Query("session_id"); session != "" {
		return "session:" + session
	}
	return "ip:" + c.ClientIP()
}

// visibleItem loads the item and rejects callers whose tier cannot see it
func (h *Handlers) visibleItem(c *gin.Context) (*models.GalleryItem, bool) {
	item, err := h.kernel.Gallery().GetByID(c.Request.Context(), c.Param("id"))
	if util.HandleDBError(c, err, "gallery item") {
		return nil, false
	}
	if !item.VisibleTo(util.ViewerTier(c)) {
		util.RespondWithAPIError(c, apierrors.TierLocked(item.RequiredTier))
		return nil, false
	}
	return item, true
}

// LoadImage starts tracking the full-size image of an item. The load runs in
// the background; poll the status endpoint for the result.
// POST /api/v1/gallery/:id/image/load
func (h *Handlers) LoadImage(c *gin.Context) {
	item, ok := h.visibleItem(c)
	if !ok {
		return
	}

	load := h.kernel.Images().Load(imageViewer(c), item.ID, item.ImageURL)
	c.JSON(http.StatusAccepted, load)
}

// RetryImage starts another attempt after a failed load
// POST /api/v1/gallery/:id/image/retry
func (h *Handlers) RetryImage(c *gin.Context) {
	item, ok := h.visibleItem(c)
	if !ok {
		return
	}

	load, err := h.kernel.Images().Retry(imageViewer(c), item.ID)
	switch {
	case err == nil:
		c.JSON(http.StatusAccepted, load)
	case errors.Is(err, preload.ErrNotTracked):
		util.RespondNotFound(c, "image load")
	case errors.Is(err, preload.ErrNotRetryable):
		util.RespondBadRequest(c, err.Error())
	case errors.Is(err, preload.ErrMaxRetries):
		util.RespondWithAPIError(c, apierrors.MaxRetriesReached("image").
			WithDetails(fmt.Sprintf("%d of %d retries used", load.Retries, preload.MaxRetries)))
	default:
		util.RespondInternalError(c, "failed to retry image load", err)
	}
}

// GetImageStatus returns the caller's load state of an item's image
// GET /api/v1/gallery/:id/image/status
func (h *Handlers) GetImageStatus(c *gin.Context) {
	item, ok := h.visibleItem(c)
	if !ok {
		return
	}

	load, ok := h.kernel.Images().Status(imageViewer(c), item.ID)
	if !ok {
		util.RespondNotFound(c, "image load")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"load":                load,
		"can_retry":           load.CanRetry(),
		"max_retries_reached": load.MaxRetriesReached(),
	})
}
