package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }

func baseUser() User {
	return User{
		ID:            "user-1",
		Name:          "Ana",
		Email:         "ana@example.com",
		PasswordHash:  "hash",
		Role:          RoleUser,
		LoginAttempts: 3,
	}
}

func TestApplyPatch_NilFieldsKeepExisting(t *testing.T) {
	existing := baseUser()

	out := ApplyPatch(existing, UserPatch{})

	assert.Equal(t, existing, out)
}

func TestApplyPatch_EmptyStringsFallBack(t *testing.T) {
	out := ApplyPatch(baseUser(), UserPatch{
		Name:         strPtr(""),
		Email:        strPtr("   "),
		PasswordHash: strPtr(""),
	})

	assert.Equal(t, "Ana", out.Name)
	assert.Equal(t, "ana@example.com", out.Email)
	assert.Equal(t, "hash", out.PasswordHash)
}

func TestApplyPatch_NormalizesEmail(t *testing.T) {
	out := ApplyPatch(baseUser(), UserPatch{Email: strPtr("  New@Example.COM ")})

	assert.Equal(t, "new@example.com", out.Email)
}

func TestApplyPatch_AccountBlockIsMonotonic(t *testing.T) {
	blocked := baseUser()
	blocked.AccountBlock = true

	out := ApplyPatch(blocked, UserPatch{AccountBlock: boolPtr(false)})
	assert.True(t, out.AccountBlock)

	out = ApplyPatch(baseUser(), UserPatch{AccountBlock: boolPtr(true)})
	assert.True(t, out.AccountBlock)
}

func TestApplyPatch_IgnoresNegativeAttemptsAndUnknownRole(t *testing.T) {
	unknown := Role("ROOT")

	out := ApplyPatch(baseUser(), UserPatch{LoginAttempts: intPtr(-1), Role: &unknown})

	assert.Equal(t, 3, out.LoginAttempts)
	assert.Equal(t, RoleUser, out.Role)
}

func TestApplyPatch_TwoFactorSecretIsSetOnce(t *testing.T) {
	out := ApplyPatch(baseUser(), UserPatch{
		TwoFactorSecret:    strPtr("sealed-1"),
		IsTwoFactorEnabled: boolPtr(true),
	})
	assert.True(t, out.IsTwoFactorEnabled)
	if assert.NotNil(t, out.TwoFactorSecret) {
		assert.Equal(t, "sealed-1", *out.TwoFactorSecret)
	}

	again := ApplyPatch(out, UserPatch{TwoFactorSecret: strPtr("sealed-2")})
	assert.Equal(t, "sealed-1", *again.TwoFactorSecret)
}

func TestApplyPatch_DoesNotAliasExisting(t *testing.T) {
	existing := baseUser()
	lock := time.Now().Add(time.Hour)

	out := ApplyPatch(existing, UserPatch{LockAccount: &lock})
	lock = lock.Add(time.Hour)

	assert.Nil(t, existing.LockAccount)
	assert.NotEqual(t, lock, *out.LockAccount)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("owner")
	assert.NoError(t, err)
	assert.Equal(t, RoleOwner, role)

	_, err = ParseRole("superuser")
	assert.Error(t, err)
}
