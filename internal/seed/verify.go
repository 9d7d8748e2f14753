package seed

import (
	"context"
	"fmt"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
)

// Report summarizes what is in the database after seeding
type Report struct {
	Users       int64            `json:"users"`
	UsersByTier map[string]int64 `json:"users_by_tier"`
	Items       int64            `json:"items"`
	LockedItems int64            `json:"locked_items"`
	Impressions int64            `json:"impressions"`
	Clicks      int64            `json:"clicks"`

	// IDs handy for poking the API by hand
	SampleUserID string `json:"sample_user_id,omitempty"`
	SampleItemID string `json:"sample_item_id,omitempty"`

	Problems []string `json:"problems,omitempty"`
}

// OK reports whether verification found no problems
func (r *Report) OK() bool {
	return len(r.Problems) == 0
}

// Verify counts seeded rows and checks the relationships the gallery relies on
func (s *Seeder) Verify(ctx context.Context) (*Report, error) {
	db := s.db.WithContext(ctx)
	report := &Report{UsersByTier: make(map[string]int64)}

	counts := []struct {
		model interface{}
		dest  *int64
	}{
		{&models.User{}, &report.Users},
		{&models.GalleryItem{}, &report.Items},
		{&models.RecommendationImpression{}, &report.Impressions},
		{&models.RecommendationClick{}, &report.Clicks},
	}
	for _, c := range counts {
		if err := db.Model(c.model).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to count %T: %w", c.model, err)
		}
	}

	if err := db.Model(&models.GalleryItem{}).Where("tier_locked = ?", true).Count(&report.LockedItems).Error; err != nil {
		return nil, err
	}

	var tiers []struct {
		Tier  string
		Count int64
	}
	if err := db.Model(&models.User{}).Select("tier, COUNT(*) AS count").Group("tier").Scan(&tiers).Error; err != nil {
		return nil, err
	}
	for _, t := range tiers {
		report.UsersByTier[t.Tier] = t.Count
		if !models.IsValidTier(t.Tier) {
			report.Problems = append(report.Problems, fmt.Sprintf("%d users have unknown tier %q", t.Count, t.Tier))
		}
	}

	var orphans int64
	if err := db.Model(&models.GalleryItem{}).
		Where("creator_id NOT IN (?)", db.Model(&models.User{}).Select("id")).
		Count(&orphans).Error; err != nil {
		return nil, err
	}
	if orphans > 0 {
		report.Problems = append(report.Problems, fmt.Sprintf("%d gallery items have no creator", orphans))
	}

	var badLocks int64
	if err := db.Model(&models.GalleryItem{}).
		Where("tier_locked = ? AND (required_tier IS NULL OR required_tier = '')", true).
		Count(&badLocks).Error; err != nil {
		return nil, err
	}
	if badLocks > 0 {
		report.Problems = append(report.Problems, fmt.Sprintf("%d locked items have no required tier", badLocks))
	}

	if report.Items == 0 {
		report.Problems = append(report.Problems, "no gallery items")
	}

	var user models.User
	if err := db.Order("created_at").Limit(1).Find(&user).Error; err == nil {
		report.SampleUserID = user.ID
	}
	var item models.GalleryItem
	if err := db.Order("created_at DESC").Limit(1).Find(&item).Error; err == nil {
		report.SampleItemID = item.ID
	}

	return report, nil
}
