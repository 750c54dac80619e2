package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedHandler(t *testing.T, seen **models.AccessClaims) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*seen = GetUserFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, "fieldauth")
	token, err := tm.GenerateAccessToken("user-1", models.RoleAdmin)
	require.NoError(t, err)

	var seen *models.AccessClaims
	handler := AuthMiddleware(tm)(protectedHandler(t, &seen))

	req := httptest.NewRequest(http.MethodPost, "/auth/2fa/setup", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)
	assert.Equal(t, models.RoleAdmin, seen.Role)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Minute, "fieldauth")

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer abc.def.ghi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen *models.AccessClaims
			handler := AuthMiddleware(tm)(protectedHandler(t, &seen))

			req := httptest.NewRequest(http.MethodPost, "/auth/2fa/setup", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, seen)
		})
	}
}

func TestGetUserFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Nil(t, GetUserFromContext(req))
}
