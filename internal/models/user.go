package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Membership tiers, lowest first
const (
	TierFree      = "free"
	TierSupporter = "supporter"
	TierVIP       = "vip"
)

var tierRank = map[string]int{
	TierFree:      0,
	TierSupporter: 1,
	TierVIP:       2,
}

// TierAllows reports whether a member of userTier may see content that requires
// the given tier. Unknown tiers rank as free; an empty requirement allows everyone.
func TierAllows(userTier, required string) bool {
	if required == "" {
		return true
	}
	return tierRank[strings.ToLower(userTier)] >= tierRank[strings.ToLower(required)]
}

// IsValidTier reports whether tier is a known membership tier
func IsValidTier(tier string) bool {
	_, ok := tierRank[strings.ToLower(tier)]
	return ok
}

// User is a fan or creator account. Identity itself lives with the external
// auth provider; this row only carries what the gallery needs to render.
type User struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Username    string `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName string `gorm:"not null" json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Tier        string `gorm:"not null;default:'free'" json:"tier"`
	IsAdmin     bool   `gorm:"default:false" json:"is_admin"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the default table name
func (User) TableName() string {
	return "users"
}

// BeforeCreate assigns a UUID so inserts work on databases without gen_random_uuid
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Tier == "" {
		u.Tier = TierFree
	}
	return nil
}
