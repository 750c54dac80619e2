package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/BradenHooton/fieldauth/internal/models"
	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing access claims in context
	UserContextKey contextKey = "user"
)

// AccessTokenValidator validates bearer access tokens
type AccessTokenValidator interface {
	ValidateToken(tokenString string) (*models.AccessClaims, error)
}

// AuthMiddleware validates the bearer access token and injects its claims into context
func AuthMiddleware(validator AccessTokenValidator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				pkghttp.WriteUnauthorized(w, "invalid authorization header format")
				return
			}

			claims, err := validator.ValidateToken(parts[1])
			if err != nil {
				pkghttp.WriteUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts access claims from request context
func GetUserFromContext(r *http.Request) *models.AccessClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}
