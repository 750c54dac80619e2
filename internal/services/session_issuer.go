package services

import (
	"context"
	"log/slog"

	"github.com/BradenHooton/fieldauth/internal/models"
)

// SessionIssuer creates the single live session of a user.
// Prior sessions are deleted before the new one is created, never after.
type SessionIssuer struct {
	sessions SessionStore
	signer   TokenSigner
	logger   *slog.Logger
}

func NewSessionIssuer(sessions SessionStore, signer TokenSigner, logger *slog.Logger) *SessionIssuer {
	return &SessionIssuer{sessions: sessions, signer: signer, logger: logger}
}

// Issue deletes every session of user, signs an access token and stores a
// new refresh token. A failure after the delete leaves the user without a
// session; they have to log in again.
func (i *SessionIssuer) Issue(ctx context.Context, user *models.User) (*SessionResult, error) {
	if err := i.sessions.DeleteAllForUser(ctx, user.ID); err != nil {
		i.logger.Error("failed to delete prior sessions", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	accessToken, err := i.signer.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		i.logger.Error("failed to generate access token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	refreshToken, err := i.sessions.Create(ctx, &models.RefreshToken{UserID: user.ID, Role: user.Role})
	if err != nil {
		i.logger.Error("failed to create refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternal
	}

	return &SessionResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken.ID,
	}, nil
}
