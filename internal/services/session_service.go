package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/fieldauth/internal/models"
	pkglogger "github.com/BradenHooton/fieldauth/pkg/logger"
)

// SessionService exchanges refresh tokens for access tokens and ends sessions
type SessionService struct {
	sessions    SessionStore
	users       CredentialStore
	signer      TokenSigner
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

func NewSessionService(
	sessions SessionStore,
	users CredentialStore,
	signer TokenSigner,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *SessionService {
	return &SessionService{
		sessions:    sessions,
		users:       users,
		signer:      signer,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Refresh mints a new access token for the session identified by value.
// The refresh token itself is neither rotated nor deleted, and the account
// block and lock state are not rechecked.
func (s *SessionService) Refresh(ctx context.Context, value string) (*RefreshResult, error) {
	if value = strings.TrimSpace(value); value == "" {
		return nil, models.ErrRefreshTokenNotFound
	}

	token, err := s.sessions.FindByValue(ctx, value)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("refresh rejected: unknown token")
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "token_refresh_failed",
				FailureReason: "refresh_token_not_found",
				Success:       false,
			})
			return nil, models.ErrRefreshTokenNotFound
		}
		s.logger.Error("failed to look up refresh token", slog.Any("error", err))
		return nil, models.ErrInternal
	}

	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Error("refresh token references missing user", slog.String("user_id", token.UserID))
			return nil, models.ErrUserNotFound
		}
		s.logger.Error("failed to get user for refresh", slog.String("user_id", token.UserID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	accessToken, err := s.signer.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "token_refresh",
		UserID:    user.ID,
		Success:   true,
	})

	return &RefreshResult{
		AccessToken: accessToken,
		User: UserProfile{
			ID:    user.ID,
			Name:  user.Name,
			Email: user.Email,
			Role:  string(user.Role),
		},
	}, nil
}

// Logout deletes every session of the user owning value.
// An unknown value is not an error.
func (s *SessionService) Logout(ctx context.Context, value string) error {
	if value = strings.TrimSpace(value); value == "" {
		return nil
	}

	token, err := s.sessions.FindByValue(ctx, value)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to look up refresh token", slog.Any("error", err))
		return models.ErrInternal
	}

	if err := s.sessions.DeleteAllForUser(ctx, token.UserID); err != nil {
		s.logger.Error("failed to delete sessions", slog.String("user_id", token.UserID), slog.Any("error", err))
		return models.ErrInternal
	}

	s.logger.Info("user logged out", slog.String("user_id", token.UserID))
	s.auditLogger.LogAccountAction("logout", token.UserID, nil)
	return nil
}
