package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/fieldauth/internal/database"
	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/google/uuid"
)

const userColumns = `id, name, email, password_hash, role, account_block, lock_account, login_attempts,
		is_two_factor_enabled, two_factor_secret, reset_token, reset_token_expired, created_at, updated_at`

// UserRepository reads and writes user records.
// Lockout columns (login_attempts, lock_account, account_block) are written
// only through UpdateLockoutState.
type UserRepository struct {
	db  DBTX
	now func() time.Time
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

// rowScanner interface for scanning user rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var role string

	err := scanner.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role,
		&user.AccountBlock, &user.LockAccount, &user.LoginAttempts,
		&user.IsTwoFactorEnabled, &user.TwoFactorSecret,
		&user.ResetToken, &user.ResetTokenExpired,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	parsed, err := models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %s: %w", user.ID, err)
	}
	user.Role = parsed

	return &user, nil
}

// GetByEmail looks up a user case-insensitively
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)`

	return scanUserRow(r.db.QueryRow(ctx, query, models.NormalizeEmail(email)))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return scanUserRow(r.db.QueryRow(ctx, query, id))
}

// Create inserts a new user with a clean lockout state. Used by the admin
// bootstrap; registration itself lives outside this service.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := r.now().UTC()

	query := `
		INSERT INTO users (id, name, email, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING ` + userColumns

	return scanUserRow(r.db.QueryRow(ctx, query,
		user.ID, user.Name, models.NormalizeEmail(user.Email), user.PasswordHash, string(user.Role), now,
	))
}

// Update persists profile and two-factor fields of user.
// two_factor_secret is only written while it is still NULL.
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users SET
			name = $1,
			email = $2,
			role = $3,
			is_two_factor_enabled = $4,
			two_factor_secret = COALESCE(two_factor_secret, $5),
			reset_token = $6,
			reset_token_expired = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.db.Exec(ctx, query,
		user.Name, models.NormalizeEmail(user.Email), string(user.Role),
		user.IsTwoFactorEnabled, user.TwoFactorSecret,
		user.ResetToken, user.ResetTokenExpired,
		r.now().UTC(), user.ID,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// EnableTwoFactor stores the sealed secret and turns two-factor on. Only
// the two-factor columns are written. It returns models.ErrConflict when
// the user is missing or already enrolled.
func (r *UserRepository) EnableTwoFactor(ctx context.Context, id, sealedSecret string) error {
	query := `
		UPDATE users SET
			is_two_factor_enabled = TRUE,
			two_factor_secret = $1,
			updated_at = $2
		WHERE id = $3 AND NOT is_two_factor_enabled
	`

	result, err := r.db.Exec(ctx, query, sealedSecret, r.now().UTC(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}

// UpdateLockoutState writes the result of a login attempt as a
// compare-and-swap on login_attempts. It returns models.ErrConflict when
// the stored counter no longer equals expectedAttempts, so concurrent
// failures are never lost. account_block can only be raised.
func (r *UserRepository) UpdateLockoutState(ctx context.Context, id string, expectedAttempts int, state models.LockoutState) error {
	query := `
		UPDATE users SET
			login_attempts = $1,
			lock_account = COALESCE($2, lock_account),
			account_block = account_block OR $3,
			updated_at = $4
		WHERE id = $5 AND login_attempts = $6
	`

	result, err := r.db.Exec(ctx, query,
		state.LoginAttempts, state.LockAccount, state.AccountBlock,
		r.now().UTC(), id, expectedAttempts,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrConflict
	}
	return nil
}
