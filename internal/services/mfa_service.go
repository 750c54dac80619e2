package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/fieldauth/internal/models"
	pkglogger "github.com/BradenHooton/fieldauth/pkg/logger"
)

// MFAService handles TOTP enrollment and the second login step
type MFAService struct {
	users       CredentialStore
	enrollments EnrollmentStore
	attempts    TwoFactorAttemptLimiter
	totp        TwoFactorProvider
	issuer      *SessionIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewMFAService creates a new MFA service
func NewMFAService(
	users CredentialStore,
	enrollments EnrollmentStore,
	attempts TwoFactorAttemptLimiter,
	totp TwoFactorProvider,
	issuer *SessionIssuer,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *MFAService {
	return &MFAService{
		users:       users,
		enrollments: enrollments,
		attempts:    attempts,
		totp:        totp,
		issuer:      issuer,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// BeginEnrollment generates a fresh secret for userID and keeps it pending
// until VerifyEnrollment succeeds. The user record is not modified.
// Calling it again replaces the pending secret.
func (s *MFAService) BeginEnrollment(ctx context.Context, userID string) (*EnrollmentResult, error) {
	user, err := s.loadUser(ctx, userID, models.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if user.AccountBlock {
		return nil, models.ErrAccountBlocked
	}
	if user.IsTwoFactorEnabled {
		return nil, models.ErrTwoFactorAlreadyEnabled
	}

	secret, err := s.totp.GenerateSecret()
	if err != nil {
		s.logger.Error("failed to generate TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternal
	}

	uri, err := s.totp.BuildEnrollmentURI(secret, user.Email)
	if err != nil {
		s.logger.Error("failed to build enrollment URI", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	qrCode, err := s.totp.QRCodeDataURL(uri)
	if err != nil {
		s.logger.Error("failed to render enrollment QR code", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	sealed, err := s.totp.EncryptSecret(secret)
	if err != nil {
		s.logger.Error("failed to encrypt TOTP secret", slog.Any("error", err))
		return nil, models.ErrInternal
	}

	if err := s.enrollments.Put(ctx, user.ID, sealed); err != nil {
		s.logger.Error("failed to store pending enrollment", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	s.logger.Info("two-factor enrollment started", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("2fa_enrollment_started", user.ID, nil)

	return &EnrollmentResult{
		Secret:        secret,
		EnrollmentURI: uri,
		QRCode:        qrCode,
	}, nil
}

// VerifyEnrollment checks code against the pending secret. On success the
// secret is stored, 2FA is enabled and a new session is issued. A wrong code
// changes nothing.
func (s *MFAService) VerifyEnrollment(ctx context.Context, userID, code string) (*SessionResult, error) {
	user, err := s.loadUser(ctx, userID, models.ErrUserNotFound)
	if err != nil {
		return nil, err
	}
	if user.AccountBlock {
		return nil, models.ErrAccountBlocked
	}
	if user.IsTwoFactorEnabled {
		return nil, models.ErrTwoFactorAlreadyEnabled
	}

	sealed, err := s.enrollments.Get(ctx, user.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrEnrollmentExpired
		}
		s.logger.Error("failed to load pending enrollment", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	if err := s.checkCodeAttempts(ctx, user.ID, "2fa_enrollment_failed"); err != nil {
		return nil, err
	}

	secret, err := s.totp.DecryptSecret(sealed)
	if err != nil {
		s.logger.Error("failed to decrypt pending secret", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	if !s.totp.VerifyCode(secret, code) {
		s.logger.Info("two-factor enrollment code rejected", slog.String("user_id", user.ID))
		s.recordCodeFailure(ctx, user.ID, "2fa_enrollment_failed")
		return nil, models.ErrTwoFactorInvalidCode
	}
	s.resetCodeAttempts(ctx, user.ID)

	if err := s.users.EnableTwoFactor(ctx, user.ID, sealed); err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrTwoFactorAlreadyEnabled
		}
		s.logger.Error("failed to enable two-factor", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	enabled := true
	updated := models.ApplyPatch(*user, models.UserPatch{
		IsTwoFactorEnabled: &enabled,
		TwoFactorSecret:    &sealed,
	})

	if err := s.enrollments.Delete(ctx, user.ID); err != nil {
		// The entry expires on its own; enrollment already succeeded.
		s.logger.Warn("failed to delete pending enrollment", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.logger.Info("two-factor enabled", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("2fa_enabled", user.ID, nil)

	return s.issuer.Issue(ctx, &updated)
}

// VerifyLogin completes a login that returned StepTwoFactorRequired.
// Wrong codes do not touch the password lockout counters.
func (s *MFAService) VerifyLogin(ctx context.Context, userID, code string) (*SessionResult, error) {
	// An unknown id looks like a wrong code so ids cannot be enumerated.
	user, err := s.loadUser(ctx, userID, models.ErrTwoFactorInvalidCode)
	if err != nil {
		return nil, err
	}
	if user.AccountBlock {
		return nil, models.ErrAccountBlocked
	}
	if !user.IsTwoFactorEnabled || user.TwoFactorSecret == nil {
		return nil, models.ErrTwoFactorNotEnrolled
	}

	if err := s.checkCodeAttempts(ctx, user.ID, "2fa_login_failed"); err != nil {
		return nil, err
	}

	secret, err := s.totp.DecryptSecret(*user.TwoFactorSecret)
	if err != nil {
		s.logger.Error("failed to decrypt TOTP secret", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	if !s.totp.VerifyCode(secret, code) {
		s.logger.Info("two-factor login code rejected", slog.String("user_id", user.ID))
		s.recordCodeFailure(ctx, user.ID, "2fa_login_failed")
		return nil, models.ErrTwoFactorInvalidCode
	}
	s.resetCodeAttempts(ctx, user.ID)

	session, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in with two-factor", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
		Metadata:  map[string]string{"method": "totp"},
	})

	return session, nil
}

// checkCodeAttempts rejects a code check once the user ran out of attempts.
// An unreachable counter fails closed.
func (s *MFAService) checkCodeAttempts(ctx context.Context, userID, eventType string) error {
	err := s.attempts.Check(ctx, userID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrLimitExceeded):
		s.logger.Warn("two-factor code rejected: too many attempts", slog.String("user_id", userID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     eventType,
			UserID:        userID,
			FailureReason: "too_many_attempts",
			Success:       false,
		})
		return models.ErrTwoFactorRateLimited
	default:
		s.logger.Error("failed to check two-factor attempts", slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternal
	}
}

func (s *MFAService) recordCodeFailure(ctx context.Context, userID, eventType string) {
	if err := s.attempts.RecordFailure(ctx, userID); err != nil {
		s.logger.Error("failed to record two-factor attempt", slog.String("user_id", userID), slog.Any("error", err))
	}
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     eventType,
		UserID:        userID,
		FailureReason: "invalid_code",
		Success:       false,
	})
}

func (s *MFAService) resetCodeAttempts(ctx context.Context, userID string) {
	if err := s.attempts.Reset(ctx, userID); err != nil {
		s.logger.Warn("failed to reset two-factor attempts", slog.String("user_id", userID), slog.Any("error", err))
	}
}

func (s *MFAService) loadUser(ctx context.Context, userID string, notFound error) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, notFound
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternal
	}
	return user, nil
}
