package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GalleryItem is a fan-art or official media entry shown in the gallery and
// paged through by the lightbox. The lightbox never mutates it.
type GalleryItem struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	CreatorID    string         `gorm:"not null;index" json:"creator_id"`
	Creator      *User          `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	ImageURL     string         `gorm:"not null" json:"image_url"`
	ImageKey     string         `json:"-"` // S3 object key when uploaded through the admin API
	ThumbnailURL string         `json:"thumbnail_url"`
	Title        string         `gorm:"not null" json:"title"`
	Description  string         `gorm:"type:text" json:"description"`
	Tags         StringArray    `json:"tags"`

	LikeCount int64 `gorm:"default:0" json:"like_count"`
	ViewCount int64 `gorm:"default:0" json:"view_count"`

	TierLocked   bool   `gorm:"default:false" json:"tier_locked"`
	RequiredTier string `json:"required_tier,omitempty"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (GalleryItem) TableName() string {
	return "gallery_items"
}

// BeforeCreate assigns a UUID so inserts work on databases without gen_random_uuid
func (g *GalleryItem) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// VisibleTo reports whether a member of the given tier may load the full image
func (g *GalleryItem) VisibleTo(userTier string) bool {
	if !g.TierLocked {
		return true
	}
	required := g.RequiredTier
	if required == "" {
		required = TierSupporter
	}
	return TierAllows(userTier, required)
}
