package auth

import (
	"context"
	"sync"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockAuthService is a mock implementation of AuthServiceInterface for testing.
// Tokens are looked up verbatim in Tokens.
type MockAuthService struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides
	GenerateTokenFunc func(user *models.User) (*TokenResponse, error)
	ValidateTokenFunc func(ctx context.Context, tokenString string) (*models.User, error)

	// Pre-configured tokens for testing
	Tokens map[string]*models.User
}

// NewMockAuthService creates a new mock auth service with sensible defaults
func NewMockAuthService() *MockAuthService {
	return &MockAuthService{
		Calls:  make([]MockCall, 0),
		Tokens: make(map[string]*models.User),
	}
}

// AddToken makes token resolve to user
func (m *MockAuthService) AddToken(token string, user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens[token] = user
}

// recordCall records a method call for later assertion
func (m *MockAuthService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCalls returns all recorded calls (thread-safe)
func (m *MockAuthService) GetCalls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]MockCall, len(m.Calls))
	copy(result, m.Calls)
	return result
}

// GenerateToken implements AuthServiceInterface
func (m *MockAuthService) GenerateToken(user *models.User) (*TokenResponse, error) {
	m.recordCall("GenerateToken", user)
	if m.GenerateTokenFunc != nil {
		return m.GenerateTokenFunc(user)
	}

	token := "mock-token-" + user.ID
	m.AddToken(token, user)
	return &TokenResponse{Token: token, User: user, ExpiresAt: time.Now().Add(DefaultTokenTTL)}, nil
}

// ValidateToken implements AuthServiceInterface
func (m *MockAuthService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, tokenString)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.Tokens[tokenString]
	if !ok {
		return nil, ErrInvalidToken
	}
	return user, nil
}

var _ AuthServiceInterface = (*MockAuthService)(nil)
