package handlers

import (
	"github.com/Tec94/sickass-artist-platform-sub000/internal/kernel"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/util"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	kernel *kernel.Kernel
}

// NewHandlers creates a new handlers instance
func NewHandlers(k *kernel.Kernel) *Handlers {
	return &Handlers{kernel: k}
}

// galleryItemResponse is the public shape of a gallery item. Items the viewer's
// tier cannot see keep their metadata but lose the image URLs.
type galleryItemResponse struct {
	models.GalleryItem
	Locked bool `json:"locked"`
}

func presentItem(item models.GalleryItem, viewerTier string) galleryItemResponse {
	if item.VisibleTo(viewerTier) {
		return galleryItemResponse{GalleryItem: item}
	}
	item.ImageURL = ""
	item.ThumbnailURL = ""
	return galleryItemResponse{GalleryItem: item, Locked: true}
}

func presentItems(c *gin.Context, items []models.GalleryItem) []galleryItemResponse {
	tier := util.ViewerTier(c)
	out := make([]galleryItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, presentItem(item, tier))
	}
	return out
}
