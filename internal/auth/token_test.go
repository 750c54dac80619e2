package auth

import (
	"testing"
	"time"

	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "a-test-secret-that-is-long-enough"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 15*time.Minute, "fieldauth")

	token, err := tm.GenerateAccessToken("user-1", models.RoleOwner)
	require.NoError(t, err)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "fieldauth", claims.Issuer)
}

func TestTokenManager_UniqueJTI(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, "fieldauth")

	first, err := tm.GenerateAccessToken("user-1", models.RoleUser)
	require.NoError(t, err)
	second, err := tm.GenerateAccessToken("user-1", models.RoleUser)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestTokenManager_RejectsEmptyUserID(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, "fieldauth")

	_, err := tm.GenerateAccessToken("", models.RoleUser)
	assert.Error(t, err)
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, "fieldauth")
	tm.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := tm.GenerateAccessToken("user-1", models.RoleUser)
	require.NoError(t, err)

	tm.now = time.Now
	_, err = tm.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	signer := NewTokenManager(testSecret, time.Minute, "fieldauth")
	verifier := NewTokenManager("another-secret-of-decent-length", time.Minute, "fieldauth")

	token, err := signer.GenerateAccessToken("user-1", models.RoleUser)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_RejectsNoneAlgorithm(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, "fieldauth")

	claims := &models.AccessClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = tm.ValidateToken(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_Garbage(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, "fieldauth")

	_, err := tm.ValidateToken("not.a.jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
