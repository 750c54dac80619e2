package auth

import (
	"net/http"
	"time"
)

// RefreshTokenCookieName is the cookie carrying the session bearer value
const RefreshTokenCookieName = "refresh_token"

// CookieConfig holds cookie configuration settings
type CookieConfig struct {
	Domain   string        // Empty string = current host only
	Secure   bool          // HTTPS only
	SameSite string        // "strict", "lax", or "none"
	MaxAge   time.Duration // Session lifetime
}

// SetRefreshTokenCookie sets the refresh token in an httpOnly cookie
func SetRefreshTokenCookie(w http.ResponseWriter, refreshToken string, config CookieConfig) {
	maxAge := int(config.MaxAge / time.Second)
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    refreshToken,
		Path:     "/auth",
		Domain:   config.Domain,
		Expires:  time.Now().Add(config.MaxAge),
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// ClearRefreshTokenCookie expires the refresh token cookie
func ClearRefreshTokenCookie(w http.ResponseWriter, config CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookieName,
		Value:    "",
		Path:     "/auth",
		Domain:   config.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   config.Secure,
		SameSite: parseSameSite(config.SameSite),
	})
}

// GetRefreshTokenCookie retrieves the refresh token from cookies
func GetRefreshTokenCookie(r *http.Request) (string, error) {
	cookie, err := r.Cookie(RefreshTokenCookieName)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "strict":
		return http.SameSiteStrictMode
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}
