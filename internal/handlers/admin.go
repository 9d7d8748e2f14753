package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	apierrors "github.com/Tec94/sickass-artist-platform-sub000/internal/errors"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/recommendations"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxImageSize is the largest gallery upload accepted
const maxImageSize = 20 * 1024 * 1024

// UploadGalleryItem stores an image in S3 and creates the gallery item
// POST /api/v1/admin/gallery (multipart: image, title, description, tags,
// tier_locked, required_tier, creator_id)
func (h *Handlers) UploadGalleryItem(c *gin.Context) {
	admin, ok := util.GetUserFromContext(c)
	if !ok {
		return
	}

	uploader := h.kernel.Uploader()
	if uploader == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("image storage"))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		util.RespondValidationError(c, "image", "no image file provided in 'image' field")
		return
	}
	if file.Size > maxImageSize {
		util.RespondValidationError(c, "image", "image must be under 20MB")
		return
	}
	if !util.IsValidImageFile(file.Filename) {
		util.RespondValidationError(c, "image", "only .jpg, .png, .gif, .webp and .avif images are supported")
		return
	}
	if err := util.ValidateFilename(file.Filename); err != nil {
		util.RespondValidationError(c, "image", err.Error())
		return
	}

	title := c.PostForm("title")
	if title == "" || len(title) > 200 {
		util.RespondValidationError(c, "title", "title is required and must be at most 200 characters")
		return
	}

	tierLocked, _ := strconv.ParseBool(c.DefaultPostForm("tier_locked", "false"))
	requiredTier := c.PostForm("required_tier")
	if tierLocked {
		if requiredTier == "" {
			requiredTier = models.TierSupporter
		}
		if !models.IsValidTier(requiredTier) {
			util.RespondValidationError(c, "required_tier", "unknown tier")
			return
		}
	} else {
		requiredTier = ""
	}

	creatorID := c.DefaultPostForm("creator_id", admin.ID)
	ctx := c.Request.Context()
	if _, err := h.kernel.Users().GetUser(ctx, creatorID); util.HandleDBError(c, err, "creator") {
		return
	}

	src, err := file.Open()
	if err != nil {
		util.RespondInternalError(c, "failed to read upload", err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxImageSize+1))
	if err != nil {
		util.RespondInternalError(c, "failed to read upload", err)
		return
	}
	if len(data) > maxImageSize {
		util.RespondValidationError(c, "image", "image must be under 20MB")
		return
	}

	result, err := uploader.UploadGalleryImage(ctx, data, creatorID, file.Filename)
	if err != nil {
		util.RespondInternalError(c, "failed to upload image", err)
		return
	}

	item := &models.GalleryItem{
		CreatorID:    creatorID,
		ImageURL:     result.URL,
		ImageKey:     result.Key,
		ThumbnailURL: result.URL,
		Title:        title,
		Description:  c.PostForm("description"),
		Tags:         models.StringArray(util.ParseTagList(c.PostForm("tags"))),
		TierLocked:   tierLocked,
		RequiredTier: requiredTier,
	}
	if err := h.kernel.Gallery().Create(ctx, item); err != nil {
		if delErr := uploader.DeleteFile(context.Background(), result.Key); delErr != nil {
			logger.WarnWithFields("Failed to delete orphaned upload", delErr, zap.String("key", result.Key))
		}
		util.HandleDBError(c, err, "gallery item")
		return
	}

	logger.Log.Info("Gallery item uploaded",
		logger.WithItemID(item.ID),
		logger.WithUserID(admin.ID),
		zap.String("creator_id", creatorID),
		zap.Int("size_bytes", len(data)),
	)

	h.syncItem(*item)

	c.JSON(http.StatusCreated, item)
}

// syncItem pushes a new item to Gorse in the background
func (h *Handlers) syncItem(item models.GalleryItem) {
	gorse := h.kernel.Gorse()
	if gorse == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), gorseSyncTimeout)
		defer cancel()
		if err := gorse.SyncItem(ctx, item); err != nil {
			logger.WarnWithFields("Failed to sync item to Gorse", err, logger.WithItemID(item.ID))
		}
	}()
}

// GetRecommendationCTR reports click-through rate of the related panel per
// source
// GET /api/v1/admin/recommendations/ctr?hours=24
func (h *Handlers) GetRecommendationCTR(c *gin.Context) {
	hours := util.ParseInt(c.Query("hours"), 24)
	if hours <= 0 || hours > 24*90 {
		util.RespondValidationError(c, "hours", "hours must be between 1 and 2160")
		return
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	metrics, err := recommendations.CalculateCTR(h.kernel.DB().WithContext(c.Request.Context()), since)
	if err != nil {
		util.RespondInternalError(c, "failed to calculate CTR", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metrics": metrics,
		"hours":   hours,
	})
}
