package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWTService(accessTTL time.Duration) *JWTService {
	return NewJWTService(&JWTConfig{
		SecretKey:            []byte("test-secret"),
		AccessTokenDuration:  accessTTL,
		RefreshTokenDuration: 24 * time.Hour,
		Issuer:               "LinkPulse-Backend",
	})
}

func TestJWT_RoundTrip(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	userID := uuid.New()

	token, err := svc.GenerateAccessToken(userID, "user@example.com")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestJWT_ExpiredToken(t *testing.T) {
	svc := newTestJWTService(-time.Minute)

	token, err := svc.GenerateAccessToken(uuid.New(), "user@example.com")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWT_WrongSecret(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)
	token, err := svc.GenerateAccessToken(uuid.New(), "user@example.com")
	require.NoError(t, err)

	other := NewJWTService(&JWTConfig{
		SecretKey:            []byte("another-secret"),
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 24 * time.Hour,
	})

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWT_Garbage(t *testing.T) {
	svc := newTestJWTService(15 * time.Minute)

	_, err := svc.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractTokenFromBearer(t *testing.T) {
	assert.Equal(t, "abc", ExtractTokenFromBearer("Bearer abc"))
	assert.Equal(t, "", ExtractTokenFromBearer("abc"))
	assert.Equal(t, "", ExtractTokenFromBearer(""))
	assert.Equal(t, "", ExtractTokenFromBearer("Bearer "))
}

func TestPasswordService_RoundTrip(t *testing.T) {
	// Минимальная стоимость ускоряет тест
	svc := NewPasswordService(4)

	hash, err := svc.HashPassword("s3cret-password")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-password", hash)

	assert.NoError(t, svc.VerifyPassword(hash, "s3cret-password"))
	assert.Error(t, svc.VerifyPassword(hash, "wrong-password"))
}

func TestPasswordService_EmptyPassword(t *testing.T) {
	svc := NewPasswordService(4)

	_, err := svc.HashPassword("")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestPasswordService_OutOfRangeCostFallsBack(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewPasswordService(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewPasswordService(99).cost)
	assert.Equal(t, 4, NewPasswordService(4).cost)
}

func TestValidatePassword(t *testing.T) {
	svc := NewPasswordService(4)

	assert.ErrorIs(t, svc.ValidatePassword("short"), ErrPasswordTooShort)
	assert.ErrorIs(t, svc.ValidatePassword(string(make([]byte, 129))), ErrPasswordTooLong)
	assert.NoError(t, svc.ValidatePassword("long-enough"))
}
