package auth

import (
	"context"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
// This enables mocking for unit tests without requiring a real database.
type AuthServiceInterface interface {
	// GenerateToken issues a signed token for user
	GenerateToken(user *models.User) (*TokenResponse, error)

	// ValidateToken checks the signature and expiry and returns the fresh user
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
}

// Ensure Service implements AuthServiceInterface
var _ AuthServiceInterface = (*Service)(nil)
