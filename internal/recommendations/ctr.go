package recommendations

import (
	"fmt"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CTRMetric represents click-through rate for a recommendation source
type CTRMetric struct {
	Source      string    `json:"source"`
	Impressions int64     `json:"impressions"`
	Clicks      int64     `json:"clicks"`
	CTR         float64   `json:"ctr"` // clicks/impressions * 100
	Since       time.Time `json:"since"`
}

// Sources reported by CalculateCTR
var ctrSources = []string{SourceGorse, SourceTags}

// CalculateCTR calculates click-through rates of the related panel per source
func CalculateCTR(db *gorm.DB, since time.Time) ([]CTRMetric, error) {
	metrics := make([]CTRMetric, 0, len(ctrSources))

	for _, source := range ctrSources {
		var impressionCount int64
		var clickCount int64

		err := db.Table("recommendation_impressions").
			Where("source = ? AND created_at >= ?", source, since).
			Count(&impressionCount).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count impressions for %s: %w", source, err)
		}

		err = db.Table("recommendation_clicks").
			Where("source = ? AND created_at >= ?", source, since).
			Count(&clickCount).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count clicks for %s: %w", source, err)
		}

		ctr := 0.0
		if impressionCount > 0 {
			ctr = (float64(clickCount) / float64(impressionCount)) * 100
		}

		metrics = append(metrics, CTRMetric{
			Source:      source,
			Impressions: impressionCount,
			Clicks:      clickCount,
			CTR:         ctr,
			Since:       since,
		})
	}

	return metrics, nil
}

// LogCTRMetrics calculates and logs CTR metrics for the past 24 hours
func LogCTRMetrics(db *gorm.DB) error {
	since := time.Now().UTC().Add(-24 * time.Hour)
	metrics, err := CalculateCTR(db, since)
	if err != nil {
		return err
	}

	for _, m := range metrics {
		logger.Log.Info("📊 Related panel CTR (24h)",
			zap.String("source", m.Source),
			zap.Int64("impressions", m.Impressions),
			zap.Int64("clicks", m.Clicks),
			zap.Float64("ctr_percent", m.CTR),
		)
	}
	return nil
}
