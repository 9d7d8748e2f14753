package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecommendationImpression records that a related item was shown next to a
// gallery item, used for click-through analysis of the related-content panel
type RecommendationImpression struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"index:idx_impression_user_time" json:"user_id,omitempty"`
	ItemID string `gorm:"not null;index:idx_impression_item_time" json:"item_id"`

	// Item the related panel was opened from
	SourceItemID string `gorm:"not null;index" json:"source_item_id"`

	Source    string  `gorm:"not null" json:"source"` // "gorse", "tags", "cache"
	Position  int     `gorm:"not null" json:"position"`
	SessionID *string `gorm:"index" json:"session_id,omitempty"`

	Score  *float64 `json:"score,omitempty"`
	Reason *string  `json:"reason,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_impression_user_time;index:idx_impression_item_time" json:"created_at"`
}

// TableName overrides the default table name
func (RecommendationImpression) TableName() string {
	return "recommendation_impressions"
}

// BeforeCreate assigns a UUID so inserts work on databases without gen_random_uuid
func (r *RecommendationImpression) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
