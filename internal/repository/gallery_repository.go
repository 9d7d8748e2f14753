package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
)

// GalleryFilter narrows a gallery listing
type GalleryFilter struct {
	Tag       string
	CreatorID string
	Limit     int
	Offset    int
}

// GalleryRepository handles all database operations for gallery items
type GalleryRepository interface {
	List(ctx context.Context, filter GalleryFilter) ([]models.GalleryItem, error)
	Count(ctx context.Context, filter GalleryFilter) (int64, error)
	GetByID(ctx context.Context, id string) (*models.GalleryItem, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.GalleryItem, error)
	FindByTagOverlap(ctx context.Context, tags []string, excludeID string, limit int) ([]models.GalleryItem, error)
	Create(ctx context.Context, item *models.GalleryItem) error
	IncrementViews(ctx context.Context, id string) error
	IncrementLikes(ctx context.Context, id string) (int64, error)

	// Related-panel analytics
	CreateImpressions(ctx context.Context, impressions []models.RecommendationImpression) error
	CreateClick(ctx context.Context, click *models.RecommendationClick) error
}

// galleryRepository implements GalleryRepository on gorm
type galleryRepository struct {
	db *gorm.DB
}

// NewGalleryRepository creates a new gallery repository
func NewGalleryRepository(db *gorm.DB) GalleryRepository {
	return &galleryRepository{db: db}
}

// List returns items newest first. Ties on created_at fall back to id so
// pages are stable.
func (r *galleryRepository) List(ctx context.Context, filter GalleryFilter) ([]models.GalleryItem, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	var items []models.GalleryItem
	err := r.filtered(ctx, filter).
		Preload("Creator").
		Order("created_at DESC, id").
		Limit(limit).
		Offset(offset).
		Find(&items).Error

	return items, err
}

// Count returns how many items match filter, ignoring limit and offset
func (r *galleryRepository) Count(ctx context.Context, filter GalleryFilter) (int64, error) {
	var count int64
	err := r.filtered(ctx, filter).Model(&models.GalleryItem{}).Count(&count).Error
	return count, err
}

func (r *galleryRepository) filtered(ctx context.Context, filter GalleryFilter) *gorm.DB {
	q := r.db.WithContext(ctx)
	if filter.CreatorID != "" {
		q = q.Where("creator_id = ?", filter.CreatorID)
	}
	if filter.Tag != "" {
		q = r.whereHasAnyTag(q, []string{filter.Tag})
	}
	return q
}

// whereHasAnyTag matches items sharing at least one tag. Postgres uses the
// array overlap operator; SQLite matches the quoted element inside the
// stored "{...}" literal.
func (r *galleryRepository) whereHasAnyTag(q *gorm.DB, tags []string) *gorm.DB {
	if r.db.Dialector.Name() == "postgres" {
		return q.Where("tags && ?", pq.Array(tags))
	}

	clauses := make([]string, 0, len(tags))
	args := make([]interface{}, 0, len(tags))
	for _, tag := range tags {
		clauses = append(clauses, "tags LIKE ?")
		args = append(args, `%"`+tag+`"%`)
	}
	return q.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// GetByID gets one item with its creator
func (r *galleryRepository) GetByID(ctx context.Context, id string) (*models.GalleryItem, error) {
	var item models.GalleryItem
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("id = ?", id).
		First(&item).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// GetByIDs returns the items in the order of ids, skipping any that no
// longer exist
func (r *galleryRepository) GetByIDs(ctx context.Context, ids []string) ([]models.GalleryItem, error) {
	if len(ids) == 0 {
		return []models.GalleryItem{}, nil
	}

	var found []models.GalleryItem
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Where("id IN ?", ids).
		Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[string]models.GalleryItem, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	ordered := make([]models.GalleryItem, 0, len(found))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
			delete(byID, id)
		}
	}
	return ordered, nil
}

// FindByTagOverlap returns items sharing any of tags, most liked first
func (r *galleryRepository) FindByTagOverlap(ctx context.Context, tags []string, excludeID string, limit int) ([]models.GalleryItem, error) {
	if len(tags) == 0 {
		return []models.GalleryItem{}, nil
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}

	q := r.db.WithContext(ctx).Preload("Creator")
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var items []models.GalleryItem
	err := r.whereHasAnyTag(q, tags).
		Order("like_count DESC, created_at DESC, id").
		Limit(limit).
		Find(&items).Error

	return items, err
}

// Create inserts a new item
func (r *galleryRepository) Create(ctx context.Context, item *models.GalleryItem) error {
	if item == nil || item.ImageURL == "" || item.CreatorID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// IncrementViews bumps the view counter
func (r *galleryRepository) IncrementViews(ctx context.Context, id string) error {
	return r.increment(ctx, id, "view_count")
}

// IncrementLikes bumps the like counter and returns the new value
func (r *galleryRepository) IncrementLikes(ctx context.Context, id string) (int64, error) {
	if err := r.increment(ctx, id, "like_count"); err != nil {
		return 0, err
	}

	var item models.GalleryItem
	if err := r.db.WithContext(ctx).Select("like_count").Where("id = ?", id).First(&item).Error; err != nil {
		return 0, err
	}
	return item.LikeCount, nil
}

func (r *galleryRepository) increment(ctx context.Context, id, column string) error {
	result := r.db.WithContext(ctx).
		Model(&models.GalleryItem{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateImpressions writes impression rows in one batch
func (r *galleryRepository) CreateImpressions(ctx context.Context, impressions []models.RecommendationImpression) error {
	if len(impressions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(impressions, 100).Error
}

// CreateClick records a click on a related item
func (r *galleryRepository) CreateClick(ctx context.Context, click *models.RecommendationClick) error {
	if click == nil || click.ItemID == "" || click.SourceItemID == "" {
		return ErrInvalidInput
	}
	return r.db.WithContext(ctx).Create(click).Error
}
