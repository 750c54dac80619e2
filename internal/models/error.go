package models

import "errors"

// Storage-level sentinels. These never leave the service layer.
var (
	ErrNotFound      = errors.New("resource not found")
	ErrConflict      = errors.New("resource was modified concurrently")
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("attempt limit exceeded")
)

// ErrorKind identifies a caller-visible failure.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindCredentials
	KindAccountBlocked
	KindAccountLocked
	KindAccountLockedNow
	KindRefreshTokenNotFound
	KindUserNotFound
	KindTwoFactorInvalidCode
	KindTwoFactorNotEnrolled
	KindTwoFactorAlreadyEnabled
	KindEnrollmentExpired
	KindTwoFactorRateLimited
	KindBadRequest
)

var kindNames = map[ErrorKind]string{
	KindInternal:                "internal_error",
	KindCredentials:             "invalid_credentials",
	KindAccountBlocked:          "account_blocked",
	KindAccountLocked:           "account_locked",
	KindAccountLockedNow:        "account_locked_now",
	KindRefreshTokenNotFound:    "refresh_token_not_found",
	KindUserNotFound:            "user_not_found",
	KindTwoFactorInvalidCode:    "two_factor_invalid_code",
	KindTwoFactorNotEnrolled:    "two_factor_not_enrolled",
	KindTwoFactorAlreadyEnabled: "two_factor_already_enabled",
	KindEnrollmentExpired:       "enrollment_expired",
	KindTwoFactorRateLimited:    "two_factor_rate_limited",
	KindBadRequest:              "bad_request",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindInternal]
}

// AuthError is an error with a caller-visible kind
type AuthError struct {
	Kind    ErrorKind
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

var (
	ErrCredentials             = &AuthError{Kind: KindCredentials, Message: "invalid email or password"}
	ErrAccountBlocked          = &AuthError{Kind: KindAccountBlocked, Message: "account is blocked"}
	ErrAccountLocked           = &AuthError{Kind: KindAccountLocked, Message: "account is temporarily locked"}
	ErrAccountLockedNow        = &AuthError{Kind: KindAccountLockedNow, Message: "too many failed attempts, account is now locked"}
	ErrRefreshTokenNotFound    = &AuthError{Kind: KindRefreshTokenNotFound, Message: "refresh token not found"}
	ErrUserNotFound            = &AuthError{Kind: KindUserNotFound, Message: "user not found"}
	ErrTwoFactorInvalidCode    = &AuthError{Kind: KindTwoFactorInvalidCode, Message: "invalid two-factor code"}
	ErrTwoFactorNotEnrolled    = &AuthError{Kind: KindTwoFactorNotEnrolled, Message: "two-factor authentication is not enabled"}
	ErrTwoFactorAlreadyEnabled = &AuthError{Kind: KindTwoFactorAlreadyEnabled, Message: "two-factor authentication is already enabled"}
	ErrEnrollmentExpired       = &AuthError{Kind: KindEnrollmentExpired, Message: "two-factor enrollment expired, start again"}
	ErrTwoFactorRateLimited    = &AuthError{Kind: KindTwoFactorRateLimited, Message: "too many invalid two-factor codes, try again later"}
	ErrInvalidRequest          = &AuthError{Kind: KindBadRequest, Message: "invalid request"}
	ErrInternal                = &AuthError{Kind: KindInternal, Message: "internal server error"}
)

// KindOf returns the kind carried by err. Anything that is not an
// AuthError is reported as KindInternal.
func KindOf(err error) ErrorKind {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return KindInternal
}
