package services

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/models"
	pkgauth "github.com/BradenHooton/fieldauth/pkg/auth"
	pkglogger "github.com/BradenHooton/fieldauth/pkg/logger"
)

// maxLockoutRetries bounds how often a login re-reads the user after losing
// a compare-and-swap on login_attempts to a concurrent request.
const maxLockoutRetries = 5

// AuthService handles password login and progressive lockout
type AuthService struct {
	users       CredentialStore
	issuer      *SessionIssuer
	hasher      pkgauth.PasswordHasher
	clock       auth.Clock
	policy      auth.LockoutPolicy
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users CredentialStore,
	issuer *SessionIssuer,
	hasher pkgauth.PasswordHasher,
	clock auth.Clock,
	policy auth.LockoutPolicy,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	if clock == nil {
		clock = auth.SystemClock{}
	}
	return &AuthService{
		users:       users,
		issuer:      issuer,
		hasher:      hasher,
		clock:       clock,
		policy:      policy,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Login checks credentials and applies the lockout policy.
//
// Checks run in order and each one stops the login: unknown email,
// permanent block, active temporary lock, password. A wrong password is
// counted before the error is returned. On success the counter is reset and
// the caller either gets a 2FA challenge or, for users without 2FA, a full
// session together with the hint to enroll.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.burnPasswordCompare(password)
			s.logger.Info("login failed: invalid credentials", slog.String("email", pkglogger.SanitizedEmail(email)))
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternal
	}

	// Password results are reused across retries while the hash is unchanged.
	var (
		compared     bool
		matched      bool
		comparedHash string
	)

	for try := 0; try < maxLockoutRetries; try++ {
		if err := s.checkAccountState(user); err != nil {
			return nil, err
		}

		if !compared || comparedHash != user.PasswordHash {
			matched = s.hasher.Compare(password, user.PasswordHash)
			compared, comparedHash = true, user.PasswordHash
		}

		var lockedNow bool
		if matched {
			err = s.users.UpdateLockoutState(ctx, user.ID, user.LoginAttempts, models.LockoutState{LoginAttempts: 0})
		} else {
			lockedNow, err = s.recordFailure(ctx, user)
		}

		switch {
		case err == nil && matched:
			return s.completeLogin(ctx, user)
		case err == nil && lockedNow:
			return nil, models.ErrAccountLockedNow
		case err == nil:
			return nil, models.ErrCredentials
		case !errors.Is(err, models.ErrConflict):
			s.logger.Error("failed to persist login attempt", slog.String("user_id", user.ID), slog.Any("error", err))
			return nil, models.ErrInternal
		}

		s.logger.Debug("login attempt lost counter race, retrying",
			slog.String("user_id", user.ID),
			slog.Int("try", try+1))

		user, err = s.users.GetByID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, models.ErrCredentials
			}
			s.logger.Error("failed to reload user", slog.Any("error", err))
			return nil, models.ErrInternal
		}
	}

	s.logger.Error("login attempt retries exhausted", slog.String("user_id", user.ID))
	return nil, models.ErrInternal
}

// checkAccountState rejects blocked accounts and accounts with an active lock.
// Lock expiry is evaluated here, there is no background unlock.
func (s *AuthService) checkAccountState(user *models.User) error {
	if user.AccountBlock {
		s.logger.Info("login rejected: account blocked", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "account_blocked",
			Success:       false,
		})
		return models.ErrAccountBlocked
	}

	if user.LockAccount != nil && !s.clock.IsPast(*user.LockAccount) {
		s.logger.Info("login rejected: account locked",
			slog.String("user_id", user.ID),
			slog.Time("locked_until", *user.LockAccount))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			FailureReason: "account_locked",
			Success:       false,
		})
		return models.ErrAccountLocked
	}

	return nil
}

// recordFailure counts a wrong password and reports whether this failure
// crossed a lock threshold. A lost race returns models.ErrConflict.
func (s *AuthService) recordFailure(ctx context.Context, user *models.User) (bool, error) {
	attempts := user.LoginAttempts + 1
	decision := s.policy.Decide(attempts)

	state := models.LockoutState{
		LoginAttempts: attempts,
		AccountBlock:  decision.Blocks(),
	}
	if decision.Locks() {
		until := s.clock.AddMinutes(int(decision.LockDuration / time.Minute))
		state.LockAccount = &until
	}

	// Block and lock land in the same row update.
	if err := s.users.UpdateLockoutState(ctx, user.ID, user.LoginAttempts, state); err != nil {
		return false, err
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		UserID:        user.ID,
		FailureReason: "invalid_credentials",
		Success:       false,
		Metadata:      map[string]string{"login_attempts": strconv.Itoa(attempts)},
	})

	if !decision.Locks() {
		s.logger.Info("login failed: invalid credentials", slog.String("user_id", user.ID))
		return false, nil
	}

	s.logger.Warn("account locked after failed logins",
		slog.String("user_id", user.ID),
		slog.Int("login_attempts", attempts),
		slog.String("action", decision.Action.String()))
	s.auditLogger.LogAccountAction(decision.Action.String(), user.ID, map[string]string{
		"login_attempts": strconv.Itoa(attempts),
		"locked_until":   state.LockAccount.Format(time.RFC3339),
	})
	return true, nil
}

func (s *AuthService) completeLogin(ctx context.Context, user *models.User) (*LoginResult, error) {
	summary := UserSummary{ID: user.ID, Name: user.Name}

	if user.IsTwoFactorEnabled {
		s.logger.Info("password accepted, two-factor required", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType: "login_password_ok",
			UserID:    user.ID,
			Success:   true,
			Metadata:  map[string]string{"step": StepTwoFactorRequired},
		})
		return &LoginResult{Step: StepTwoFactorRequired, User: summary}, nil
	}

	session, err := s.issuer.Issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		Success:   true,
		Metadata:  map[string]string{"step": StepSetupTwoFactor},
	})

	return &LoginResult{
		Step:         StepSetupTwoFactor,
		User:         summary,
		Token:        session.AccessToken,
		RefreshToken: session.RefreshToken,
	}, nil
}

// burnPasswordCompare runs a compare against a throwaway hash so an unknown
// email costs about as much as a wrong password.
func (s *AuthService) burnPasswordCompare(password string) {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash("fieldauth-timing-equalizer")
		if err != nil {
			s.logger.Warn("failed to prepare timing hash", slog.Any("error", err))
			return
		}
		s.dummyHash = hash
	})
	if s.dummyHash != "" {
		s.hasher.Compare(password, s.dummyHash)
	}
}
