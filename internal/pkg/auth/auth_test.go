package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/studentgrades/internal/app/models"
	"github.com/yigit/studentgrades/internal/pkg/apperrors"
)

func init() {
	BcryptCost = bcrypt.MinCost
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret1")
	require.NoError(t, err)
	require.NotEqual(t, "secret1", hash)
	require.True(t, CheckPassword(hash, "secret1"))
	require.False(t, CheckPassword(hash, "secret2"))

	_, err = HashPassword("abc")
	require.ErrorIs(t, err, ErrWeakPassword)
}

func newService(now time.Time) *JWTService {
	s := NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "studentgrades"})
	s.now = func() time.Time { return now }
	return s
}

func TestTokenRoundTrip(t *testing.T) {
	s := newService(time.Now())
	user := &models.User{ID: 7, Username: "ana", RoleType: models.RoleStudent}

	token, expiresIn, err := s.GenerateAccessToken(user)
	require.NoError(t, err)
	require.Equal(t, 3600, expiresIn)

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, models.UserID(7), claims.UserID)
	require.Equal(t, "ana", claims.Username)
	require.Equal(t, models.RoleStudent, claims.RoleType)
	require.Equal(t, "7", claims.Subject)
	require.NotEmpty(t, claims.ID)
}

func TestValidateTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	old := newService(issued)
	token, _, err := old.GenerateAccessToken(&models.User{ID: 1, Username: "t", RoleType: models.RoleTeacher})
	require.NoError(t, err)

	_, err = newService(time.Now()).ValidateToken(token)
	require.ErrorIs(t, err, apperrors.ErrTokenExpired)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "studentgrades"})
	fresh, _, err := other.GenerateAccessToken(&models.User{ID: 1, Username: "t", RoleType: models.RoleTeacher})
	require.NoError(t, err)
	_, err = newService(time.Now()).ValidateToken(fresh)
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	_, err = newService(time.Now()).ValidateToken("")
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer abc.def")
	require.NoError(t, err)
	require.Equal(t, "abc.def", token)

	token, err = ExtractBearerToken("abc.def")
	require.NoError(t, err)
	require.Equal(t, "abc.def", token)

	_, err = ExtractBearerToken("  ")
	require.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	_, err = ExtractBearerToken("Bearer ")
	require.ErrorIs(t, err, ErrInvalidFormat)
}
