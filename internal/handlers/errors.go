package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BradenHooton/fieldauth/internal/models"
	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
)

const maxRequestBodyBytes = 1 << 20

// kindStatus maps every error kind to its transport status
var kindStatus = map[models.ErrorKind]int{
	models.KindCredentials:             http.StatusUnauthorized,
	models.KindAccountBlocked:          http.StatusForbidden,
	models.KindAccountLocked:           http.StatusLocked,
	models.KindAccountLockedNow:        http.StatusLocked,
	models.KindRefreshTokenNotFound:    http.StatusUnauthorized,
	models.KindUserNotFound:            http.StatusNotFound,
	models.KindTwoFactorInvalidCode:    http.StatusUnauthorized,
	models.KindTwoFactorNotEnrolled:    http.StatusConflict,
	models.KindTwoFactorAlreadyEnabled: http.StatusConflict,
	models.KindEnrollmentExpired:       http.StatusGone,
	models.KindTwoFactorRateLimited:    http.StatusTooManyRequests,
	models.KindBadRequest:              http.StatusBadRequest,
	models.KindInternal:                http.StatusInternalServerError,
}

// StatusForKind returns the HTTP status for kind
func StatusForKind(kind models.ErrorKind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeServiceError renders err from the service layer. Errors without a
// kind are reported as internal errors and their text is not exposed.
func writeServiceError(w http.ResponseWriter, err error) {
	var authErr *models.AuthError
	if !errors.As(err, &authErr) {
		authErr = models.ErrInternal
	}
	pkghttp.WriteError(w, StatusForKind(authErr.Kind), authErr.Kind.String(), authErr.Message)
}

// decodeJSONBody decodes and validates the request body into dst.
// It writes a 400 and returns false on failure.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeServiceError(w, models.ErrInvalidRequest)
		return false
	}
	if err := ValidateRequest(dst); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return false
	}
	return true
}
