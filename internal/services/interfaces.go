package services

import (
	"context"

	"github.com/BradenHooton/fieldauth/internal/models"
)

// CredentialStore defines the user persistence the services need
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	EnableTwoFactor(ctx context.Context, id, sealedSecret string) error
	UpdateLockoutState(ctx context.Context, id string, expectedAttempts int, state models.LockoutState) error
}

// SessionStore defines refresh token persistence
type SessionStore interface {
	Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error)
	FindByValue(ctx context.Context, value string) (*models.RefreshToken, error)
	DeleteAllForUser(ctx context.Context, userID string) error
}

// EnrollmentStore holds sealed TOTP secrets that have not been verified yet
type EnrollmentStore interface {
	Put(ctx context.Context, userID, sealedSecret string) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

// TwoFactorAttemptLimiter bounds wrong two-factor codes per user.
// Check returns models.ErrLimitExceeded once the budget is used up.
type TwoFactorAttemptLimiter interface {
	Check(ctx context.Context, userID string) error
	RecordFailure(ctx context.Context, userID string) error
	Reset(ctx context.Context, userID string) error
}

// TokenSigner mints short-lived access tokens
type TokenSigner interface {
	GenerateAccessToken(userID string, role models.Role) (string, error)
}

// TwoFactorProvider generates and verifies TOTP secrets
type TwoFactorProvider interface {
	GenerateSecret() (string, error)
	BuildEnrollmentURI(secret, accountLabel string) (string, error)
	VerifyCode(secret, code string) bool
	QRCodeDataURL(uri string) (string, error)
	EncryptSecret(secret string) (string, error)
	DecryptSecret(sealed string) (string, error)
}
