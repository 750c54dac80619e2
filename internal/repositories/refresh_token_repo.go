package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/fieldauth/internal/database"
	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/google/uuid"
)

// RefreshTokenRepository stores sessions keyed by their opaque bearer value
type RefreshTokenRepository struct {
	db       DBTX
	lifetime time.Duration
	now      func() time.Time
}

// NewRefreshTokenRepository creates a repository whose sessions stop
// resolving once they are older than lifetime
func NewRefreshTokenRepository(db DBTX, lifetime time.Duration) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, lifetime: lifetime, now: time.Now}
}

// Create stores a new session. The bearer value is a random UUID assigned here.
func (r *RefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) (*models.RefreshToken, error) {
	created := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    token.UserID,
		Role:      token.Role,
		CreatedAt: r.now().UTC(),
	}

	query := `INSERT INTO refresh_tokens (id, user_id, role, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query, created.ID, created.UserID, string(created.Role), created.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", database.MapPostgresError(err))
	}

	return created, nil
}

// FindByValue returns the session whose bearer value is value. Sessions past
// their lifetime are not found even before the purge job removes them.
func (r *RefreshTokenRepository) FindByValue(ctx context.Context, value string) (*models.RefreshToken, error) {
	if _, err := uuid.Parse(value); err != nil {
		return nil, models.ErrNotFound
	}

	query := `SELECT id, user_id, role, created_at FROM refresh_tokens WHERE id = $1 AND created_at >= $2`

	cutoff := r.now().UTC().Add(-r.lifetime)

	var token models.RefreshToken
	var role string
	err := r.db.QueryRow(ctx, query, value, cutoff).Scan(&token.ID, &token.UserID, &role, &token.CreatedAt)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	token.Role = models.Role(role)

	return &token, nil
}

// DeleteAllForUser removes every session of userID
func (r *RefreshTokenRepository) DeleteAllForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to delete refresh tokens: %w", database.MapPostgresError(err))
	}
	return nil
}

// DeleteCreatedBefore purges sessions older than cutoff and returns how many were removed
func (r *RefreshTokenRepository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE created_at < $1`

	result, err := r.db.Exec(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge refresh tokens: %w", database.MapPostgresError(err))
	}
	return result.RowsAffected(), nil
}
