package models

import "time"

// UserPatch describes a partial update of a User. A nil field keeps the
// existing value.
type UserPatch struct {
	Name               *string
	Email              *string
	PasswordHash       *string
	Role               *Role
	AccountBlock       *bool
	LockAccount        *time.Time
	LoginAttempts      *int
	IsTwoFactorEnabled *bool
	TwoFactorSecret    *string
	ResetToken         *string
	ResetTokenExpired  *time.Time
}

// ApplyPatch returns a copy of existing with patch merged in.
//
// Merge rules:
//   - nil fields keep the existing value
//   - Name, Email and PasswordHash ignore empty strings
//   - Email is stored normalized
//   - Role is ignored unless it is one of the known roles
//   - AccountBlock can only move from false to true
//   - LoginAttempts ignores negative values
//   - TwoFactorSecret ignores empty strings and is only set while unset
func ApplyPatch(existing User, patch UserPatch) User {
	out := existing

	if patch.Name != nil && *patch.Name != "" {
		out.Name = *patch.Name
	}
	if patch.Email != nil {
		if email := NormalizeEmail(*patch.Email); email != "" {
			out.Email = email
		}
	}
	if patch.PasswordHash != nil && *patch.PasswordHash != "" {
		out.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		if role, err := ParseRole(string(*patch.Role)); err == nil {
			out.Role = role
		}
	}
	if patch.AccountBlock != nil && *patch.AccountBlock {
		out.AccountBlock = true
	}
	if patch.LockAccount != nil {
		lock := *patch.LockAccount
		out.LockAccount = &lock
	}
	if patch.LoginAttempts != nil && *patch.LoginAttempts >= 0 {
		out.LoginAttempts = *patch.LoginAttempts
	}
	if patch.IsTwoFactorEnabled != nil {
		out.IsTwoFactorEnabled = *patch.IsTwoFactorEnabled
	}
	if patch.TwoFactorSecret != nil && *patch.TwoFactorSecret != "" && existing.TwoFactorSecret == nil {
		secret := *patch.TwoFactorSecret
		out.TwoFactorSecret = &secret
	}
	if patch.ResetToken != nil {
		token := *patch.ResetToken
		out.ResetToken = &token
	}
	if patch.ResetTokenExpired != nil {
		expires := *patch.ResetTokenExpired
		out.ResetTokenExpired = &expires
	}

	return out
}
