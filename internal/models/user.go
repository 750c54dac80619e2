package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of roles a user can hold.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
	RoleOwner Role = "OWNER"
)

// ParseRole converts a stored or configured value into a Role
func ParseRole(value string) (Role, error) {
	switch Role(strings.ToUpper(strings.TrimSpace(value))) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleOwner:
		return RoleOwner, nil
	default:
		return "", fmt.Errorf("unknown role: %q", value)
	}
}

type User struct {
	ID                 string
	Name               string
	Email              string
	PasswordHash       string
	Role               Role
	AccountBlock       bool       // Permanent block, never reset by this service
	LockAccount        *time.Time // Temporary lock expiration, evaluated lazily at login
	LoginAttempts      int
	IsTwoFactorEnabled bool
	TwoFactorSecret    *string // Encrypted TOTP secret
	ResetToken         *string
	ResetTokenExpired  *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// LockoutState is the subset of user columns written by a login attempt.
type LockoutState struct {
	LoginAttempts int
	LockAccount   *time.Time // nil keeps the stored value
	AccountBlock  bool       // false keeps the stored value
}

// NormalizeEmail lower-cases and trims an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
