package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the lifetime of issued tokens
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("token user no longer exists")
)

// Claims are the JWT claims issued by the platform's identity provider
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Tier     string `json:"tier,omitempty"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// TokenResponse is returned when a token is issued
type TokenResponse struct {
	Token     string       `json:"token"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Service verifies bearer tokens. Accounts are owned by the external
// identity provider; tokens are only issued locally for development tooling.
type Service struct {
	jwtSecret []byte
	users     repository.UserRepository
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewService creates a new auth service
func NewService(jwtSecret []byte, users repository.UserRepository) *Service {
	return &Service{
		jwtSecret: jwtSecret,
		users:     users,
		tokenTTL:  DefaultTokenTTL,
		now:       time.Now,
	}
}

// GenerateToken signs an HS256 token for user
func (s *Service) GenerateToken(user *models.User) (*TokenResponse, error) {
	if user == nil || user.ID == "" {
		return nil, errors.New("user is required")
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.tokenTTL)

	claims := Claims{
		UserID:   user.ID,
		Username: user.Username,
		Tier:     user.Tier,
		IsAdmin:  user.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &TokenResponse{
		Token:     tokenString,
		User:      user,
		ExpiresAt: expiresAt,
	}, nil
}

// ParseToken validates the signature and expiry and returns the claims
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateToken validates a JWT token and returns the current user record, so
// tier and admin changes apply without reissuing tokens
func (s *Service) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetUser(ctx, claims.UserID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUnknownUser
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}
