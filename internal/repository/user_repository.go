package repository

import (
	"context"
	"errors"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"gorm.io/gorm"
)

// UserRepository handles all database operations for users
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error)
	ListCreators(ctx context.Context, limit int) ([]*models.User, error)
	SetTier(ctx context.Context, userID, tier string) error
	SetAdmin(ctx context.Context, userID string, isAdmin bool) error
}

// userRepository implements UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// CreateUser creates a new user
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil || user.Username == "" {
		return ErrInvalidInput
	}

	return r.db.WithContext(ctx).Create(user).Error
}

// GetUser gets a user by ID
func (r *userRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	return &user, err
}

// GetUserByUsername gets a user by username (case-insensitive)
func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Where("LOWER(username) = LOWER(?)", username).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	return &user, err
}

// GetUsers gets multiple users by IDs
func (r *userRepository) GetUsers(ctx context.Context, userIDs []string) ([]*models.User, error) {
	var users []*models.User
	if len(userIDs) == 0 {
		return users, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", userIDs).
		Find(&users).Error

	return users, err
}

// ListCreators returns users who have at least one gallery item, most prolific first
func (r *userRepository) ListCreators(ctx context.Context, limit int) ([]*models.User, error) {
	var users []*models.User

	err := r.db.WithContext(ctx).
		Joins("JOIN gallery_items ON gallery_items.creator_id = users.id AND gallery_items.deleted_at IS NULL").
		Group("users.id").
		Order("COUNT(gallery_items.id) DESC, users.username").
		Limit(limit).
		Find(&users).Error

	return users, err
}

// SetTier changes a user's membership tier
func (r *userRepository) SetTier(ctx context.Context, userID, tier string) error {
	return r.update(ctx, userID, "tier", tier)
}

// SetAdmin grants or revokes admin access
func (r *userRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	return r.update(ctx, userID, "is_admin", isAdmin)
}

func (r *userRepository) update(ctx context.Context, userID, column string, value interface{}) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update(column, value)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
