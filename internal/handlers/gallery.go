package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/recommendations"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/telemetry"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// gorseSyncTimeout bounds background feedback and item syncs
const gorseSyncTimeout = 5 * time.Second

// ListGallery returns gallery items newest first
// GET /api/v1/gallery?tag=&creator_id=&limit=&offset=
func (h *Handlers) ListGallery(c *gin.Context) {
	filter := repository.GalleryFilter{
		Tag:       c.Query("tag"),
		CreatorID: c.Query("creator_id"),
		Limit:     util.ParseInt(c.Query("limit"), repository.DefaultPageSize),
		Offset:    util.ParseInt(c.Query("offset"), 0),
	}
	if filter.Limit <= 0 || filter.Limit > repository.MaxPageSize {
		util.RespondValidationError(c, "limit", "limit must be between 1 and 100")
		return
	}
	if filter.Offset < 0 {
		util.RespondValidationError(c, "offset", "offset must not be negative")
		return
	}

	ctx := c.Request.Context()
	items, err := h.kernel.Gallery().List(ctx, filter)
	if err != nil {
		util.RespondInternalError(c, "failed to list gallery", err)
		return
	}
	total, err := h.kernel.Gallery().Count(ctx, filter)
	if err != nil {
		util.RespondInternalError(c, "failed to count gallery", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items": presentItems(c, items),
		"meta": gin.H{
			"total":  total,
			"limit":  filter.Limit,
			"offset": filter.Offset,
			"count":  len(items),
		},
	})
}

// GetGalleryItem returns one item and counts the view
// GET /api/v1/gallery/:id
func (h *Handlers) GetGalleryItem(c *gin.Context) {
	ctx := c.Request.Context()
	item, err := h.kernel.Gallery().GetByID(ctx, c.Param("id"))
	if util.HandleDBError(c, err, "gallery item") {
		return
	}

	if err := h.kernel.Gallery().IncrementViews(ctx, item.ID); err != nil {
		logger.WarnWithFields("Failed to increment view count", err, logger.WithItemID(item.ID))
	}
	h.sendFeedback(util.ViewerID(c), item.ID, recommendations.FeedbackView)

	c.JSON(http.StatusOK, presentItem(*item, util.ViewerTier(c)))
}

// LikeGalleryItem increments the like counter
// POST /api/v1/gallery/:id/like
func (h *Handlers) LikeGalleryItem(c *gin.Context) {
	user, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	itemID := c.Param("id")
	likes, err := h.kernel.Gallery().IncrementLikes(c.Request.Context(), itemID)
	if util.HandleDBError(c, err, "gallery item") {
		return
	}
	h.sendFeedback(user.ID, itemID, recommendations.FeedbackLike)

	c.JSON(http.StatusOK, gin.H{
		"item_id":    itemID,
		"like_count": likes,
	})
}

// GetRelated returns items related to one gallery item. Results come from
// the recommendation cache, then Gorse, then tag overlap.
// GET /api/v1/gallery/:id/related?limit=&session_id=
func (h *Handlers) GetRelated(c *gin.Context) {
	itemID := c.Param("id")
	limit := util.ParseInt(c.Query("limit"), recommendations.DefaultRelatedLimit)

	ctx, span := telemetry.TraceGalleryEvent(c.Request.Context(), "related", telemetry.GalleryEventAttrs{
		ItemID: itemID,
		UserID: util.ViewerID(c),
	})
	defer span.End()

	related, err := h.kernel.Recommendations().Related(ctx, itemID, limit)
	if err != nil {
		telemetry.RecordServiceError(span, err)
		util.HandleDBError(c, err, "gallery item")
		return
	}
	telemetry.RecordServiceSuccess(span, len(related), false)

	h.kernel.Recommendations().RecordImpressions(util.ViewerID(c), c.Query("session_id"), itemID, related)

	tier := util.ViewerTier(c)
	out := make([]relatedItemResponse, 0, len(related))
	for _, r := range related {
		out = append(out, relatedItemResponse{
			Item:   presentItem(r.Item, tier),
			Score:  r.Score,
			Source: r.Source,
			Reason: r.Reason,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"items": out,
		"meta": gin.H{
			"item_id": itemID,
			"limit":   limit,
			"count":   len(out),
		},
	})
}

type relatedItemResponse struct {
	Item   galleryItemResponse `json:"item"`
	Score  float64             `json:"score"`
	Source string              `json:"source"`
	Reason string              `json:"reason,omitempty"`
}

// RelatedClickRequest is the body of a related-panel click
type RelatedClickRequest struct {
	ItemID    string `json:"item_id" binding:"required"`
	Source    string `json:"source" binding:"required,oneof=gorse tags"`
	Position  int    `json:"position" binding:"gte=0"`
	SessionID string `json:"session_id"`
}

// RecordRelatedClick records that a related item was opened from the panel
// POST /api/v1/gallery/:id/related/click
func (h *Handlers) RecordRelatedClick(c *gin.Context) {
	var req RelatedClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondBadRequest(c, err.Error())
		return
	}

	click := &models.RecommendationClick{
		UserID:       util.ViewerID(c),
		ItemID:       req.ItemID,
		SourceItemID: c.Param("id"),
		Source:       req.Source,
		Position:     req.Position,
	}
	if req.SessionID != "" {
		click.SessionID = &req.SessionID
	}

	if err := h.kernel.Gallery().CreateClick(c.Request.Context(), click); util.HandleDBError(c, err, "click") {
		return
	}
	h.sendFeedback(click.UserID, click.ItemID, recommendations.FeedbackClick)

	c.JSON(http.StatusCreated, click)
}

// sendFeedback reports an interaction to Gorse in the background. Anonymous
// viewers and unconfigured Gorse are skipped.
func (h *Handlers) sendFeedback(userID, itemID, feedbackType string) {
	gorse := h.kernel.Gorse()
	if gorse == nil || userID == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), gorseSyncTimeout)
		defer cancel()
		if err := gorse.SyncFeedback(ctx, userID, itemID, feedbackType); err != nil {
			logger.Log.Debug("Failed to sync feedback to Gorse",
				logger.WithUserID(userID),
				logger.WithItemID(itemID),
				zap.String("feedback_type", feedbackType),
				zap.Error(err),
			)
		}
	}()
}
