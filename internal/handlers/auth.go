package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/services"
	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
)

// AuthServiceInterface defines the interface for password login
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
}

// SessionServiceInterface defines the interface for session refresh and logout
type SessionServiceInterface interface {
	Refresh(ctx context.Context, value string) (*services.RefreshResult, error)
	Logout(ctx context.Context, value string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service      AuthServiceInterface
	sessions     SessionServiceInterface
	cookieConfig auth.CookieConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, sessions SessionServiceInterface, cookieConfig auth.CookieConfig) *AuthHandler {
	return &AuthHandler{
		service:      service,
		sessions:     sessions,
		cookieConfig: cookieConfig,
	}
}

// Request DTOs

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

// RefreshTokenRequest is the optional body of refresh and logout when the
// client cannot send cookies
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles user login
// @Summary User login
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 403 {object} pkghttp.ErrorResponse
// @Failure 423 {object} pkghttp.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if result.RefreshToken != "" {
		auth.SetRefreshTokenCookie(w, result.RefreshToken, h.cookieConfig)
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// Refresh exchanges the refresh token for a new access token
// @Summary Refresh access token
// @Produce json
// @Success 200 {object} services.RefreshResult
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.sessions.Refresh(r.Context(), refreshTokenFromRequest(w, r))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

// Logout ends every session of the caller and clears the cookie
// @Summary Logout
// @Success 204
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), refreshTokenFromRequest(w, r)); err != nil {
		writeServiceError(w, err)
		return
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// refreshTokenFromRequest reads the refresh token from the cookie, falling
// back to a JSON body. It returns "" when neither carries one.
func refreshTokenFromRequest(w http.ResponseWriter, r *http.Request) string {
	if value, err := auth.GetRefreshTokenCookie(r); err == nil && value != "" {
		return value
	}

	var req RefreshTokenRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ""
	}
	return strings.TrimSpace(req.RefreshToken)
}
