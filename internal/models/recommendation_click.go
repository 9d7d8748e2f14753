package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecommendationClick tracks when a fan opens a related item from the panel.
// Paired with RecommendationImpression it gives click-through per source.
type RecommendationClick struct {
	ID           string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID       string `gorm:"index:idx_click_user_time" json:"user_id,omitempty"`
	ItemID       string `gorm:"not null;index:idx_click_item_time" json:"item_id"`
	SourceItemID string `gorm:"not null;index" json:"source_item_id"`

	Source    string  `gorm:"not null;index" json:"source"` // "gorse", "tags"
	Position  int     `json:"position"`
	SessionID *string `gorm:"index" json:"session_id,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_click_user_time;index:idx_click_item_time" json:"created_at"`
}

// TableName specifies the table name
func (RecommendationClick) TableName() string {
	return "recommendation_clicks"
}

// BeforeCreate assigns a UUID so inserts work on databases without gen_random_uuid
func (r *RecommendationClick) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
