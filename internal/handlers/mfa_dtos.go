package handlers

// Two-factor DTOs

// VerifySetupRequest confirms enrollment with the first code from the app
type VerifySetupRequest struct {
	Code string `json:"code" validate:"required,len=6,numeric"`
}

// VerifyLoginRequest completes a login that returned step "2fa_required"
type VerifyLoginRequest struct {
	UserID string `json:"user_id" validate:"required,max=64"`
	Code   string `json:"code" validate:"required,len=6,numeric"`
}

// AccessTokenResponse is returned after a successful two-factor verification.
// The refresh token travels in the refresh_token cookie only.
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
}
