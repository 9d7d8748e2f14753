package auth

import (
	"context"
	"testing"
	"time"

	"github.com/Tec94/sickass-artist-platform-sub000/internal/database"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/models"
	"github.com/Tec94/sickass-artist-platform-sub000/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

// AuthServiceTestSuite contains auth service tests
type AuthServiceTestSuite struct {
	suite.Suite
	users       repository.UserRepository
	authService *Service
	user        *models.User
}

// SetupTest creates a fresh database and user for each test
func (suite *AuthServiceTestSuite) SetupTest() {
	db, err := database.Open("sqlite", ":memory:", false)
	suite.Require().NoError(err)
	suite.Require().NoError(database.Migrate(db))

	suite.users = repository.NewUserRepository(db)
	suite.authService = NewService([]byte("test_jwt_secret_key"), suite.users)

	suite.user = &models.User{Username: "frontrow", DisplayName: "Front Row", Tier: models.TierSupporter}
	suite.Require().NoError(suite.users.CreateUser(context.Background(), suite.user))
}

func (suite *AuthServiceTestSuite) TestGenerateAndValidate() {
	resp, err := suite.authService.GenerateToken(suite.user)
	suite.Require().NoError(err)
	suite.NotEmpty(resp.Token)
	suite.WithinDuration(time.Now().Add(DefaultTokenTTL), resp.ExpiresAt, time.Minute)

	claims, err := suite.authService.ParseToken(resp.Token)
	suite.Require().NoError(err)
	suite.Equal(suite.user.ID, claims.UserID)
	suite.Equal(models.TierSupporter, claims.Tier)

	user, err := suite.authService.ValidateToken(context.Background(), resp.Token)
	suite.Require().NoError(err)
	suite.Equal("frontrow", user.Username)
}

func (suite *AuthServiceTestSuite) TestValidateReturnsFreshUser() {
	resp, err := suite.authService.GenerateToken(suite.user)
	suite.Require().NoError(err)

	suite.Require().NoError(suite.users.SetTier(context.Background(), suite.user.ID, models.TierVIP))

	user, err := suite.authService.ValidateToken(context.Background(), resp.Token)
	suite.Require().NoError(err)
	suite.Equal(models.TierVIP, user.Tier)
}

func (suite *AuthServiceTestSuite) TestExpiredToken() {
	resp, err := suite.authService.GenerateToken(suite.user)
	suite.Require().NoError(err)

	suite.authService.now = func() time.Time { return time.Now().Add(DefaultTokenTTL + time.Hour) }
	_, err = suite.authService.ValidateToken(context.Background(), resp.Token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestWrongSecret() {
	other := NewService([]byte("another_secret"), suite.users)
	resp, err := other.GenerateToken(suite.user)
	suite.Require().NoError(err)

	_, err = suite.authService.ValidateToken(context.Background(), resp.Token)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestRejectsNoneAlgorithm() {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: suite.user.ID})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	suite.Require().NoError(err)

	_, err = suite.authService.ParseToken(signed)
	suite.ErrorIs(err, ErrInvalidToken)
}

func (suite *AuthServiceTestSuite) TestUnknownUser() {
	ghost := &models.User{ID: "11111111-1111-1111-1111-111111111111", Username: "ghost"}
	resp, err := suite.authService.GenerateToken(ghost)
	suite.Require().NoError(err)

	_, err = suite.authService.ValidateToken(context.Background(), resp.Token)
	suite.ErrorIs(err, ErrUnknownUser)
}

func (suite *AuthServiceTestSuite) TestGenerateRequiresUser() {
	_, err := suite.authService.GenerateToken(nil)
	suite.Error(err)
}

func (suite *AuthServiceTestSuite) TestMockService() {
	mock := NewMockAuthService()
	resp, err := mock.GenerateToken(suite.user)
	suite.Require().NoError(err)

	user, err := mock.ValidateToken(context.Background(), resp.Token)
	suite.Require().NoError(err)
	suite.Equal(suite.user.ID, user.ID)

	_, err = mock.ValidateToken(context.Background(), "nope")
	suite.ErrorIs(err, ErrInvalidToken)
	suite.Len(mock.GetCalls(), 3)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
