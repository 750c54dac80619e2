package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/services"
	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
)

// MFAServiceInterface defines the interface for TOTP enrollment and login
type MFAServiceInterface interface {
	BeginEnrollment(ctx context.Context, userID string) (*services.EnrollmentResult, error)
	VerifyEnrollment(ctx context.Context, userID, code string) (*services.SessionResult, error)
	VerifyLogin(ctx context.Context, userID, code string) (*services.SessionResult, error)
}

// MFAHandler handles two-factor HTTP requests
type MFAHandler struct {
	service      MFAServiceInterface
	cookieConfig auth.CookieConfig
}

// NewMFAHandler creates a new MFAHandler
func NewMFAHandler(service MFAServiceInterface, cookieConfig auth.CookieConfig) *MFAHandler {
	return &MFAHandler{
		service:      service,
		cookieConfig: cookieConfig,
	}
}

// Setup starts enrollment for the authenticated user
// @Summary Start TOTP enrollment
// @Security BearerAuth
// @Produce json
// @Success 200 {object} services.EnrollmentResult
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /auth/2fa/setup [post]
func (h *MFAHandler) Setup(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	result, err := h.service.BeginEnrollment(r.Context(), claims.UserID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// VerifySetup confirms enrollment with a code and issues a new session
// @Summary Confirm TOTP enrollment
// @Security BearerAuth
// @Accept json
// @Param request body VerifySetupRequest true "Code"
// @Produce json
// @Success 200 {object} AccessTokenResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 410 {object} pkghttp.ErrorResponse
// @Router /auth/2fa/verify-setup [post]
func (h *MFAHandler) VerifySetup(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "authentication required")
		return
	}

	var req VerifySetupRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	session, err := h.service.VerifyEnrollment(r.Context(), claims.UserID, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.writeSession(w, session)
}

// VerifyLogin completes a two-factor login
// @Summary Verify TOTP code at login
// @Accept json
// @Param request body VerifyLoginRequest true "User and code"
// @Produce json
// @Success 200 {object} AccessTokenResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 409 {object} pkghttp.ErrorResponse
// @Router /auth/2fa/verify-login [post]
func (h *MFAHandler) VerifyLogin(w http.ResponseWriter, r *http.Request) {
	var req VerifyLoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	session, err := h.service.VerifyLogin(r.Context(), req.UserID, req.Code)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	h.writeSession(w, session)
}

func (h *MFAHandler) writeSession(w http.ResponseWriter, session *services.SessionResult) {
	auth.SetRefreshTokenCookie(w, session.RefreshToken, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, AccessTokenResponse{AccessToken: session.AccessToken})
}
