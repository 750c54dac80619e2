package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/BradenHooton/fieldauth/internal/services"
	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
	"github.com/stretchr/testify/assert"
)

// TestCookieConfig is the cookie configuration used by handler tests
var TestCookieConfig = auth.CookieConfig{Secure: true, SameSite: "strict", MaxAge: 7 * 24 * time.Hour}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAuthContext adds access claims to request context for testing authenticated endpoints
func WithAuthContext(req *http.Request, userID string, role models.Role) *http.Request {
	claims := &models.AccessClaims{UserID: userID, Role: role}
	ctx := context.WithValue(req.Context(), auth.UserContextKey, claims)
	return req.WithContext(ctx)
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
}

// RefreshCookie returns the refresh_token cookie set on the response, if any
func RefreshCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == auth.RefreshTokenCookieName {
			return c
		}
	}
	return nil
}

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc func(ctx context.Context, email, password string) (*services.LoginResult, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*services.LoginResult, error) {
	if m.LoginFunc == nil {
		return nil, models.ErrCredentials
	}
	return m.LoginFunc(ctx, email, password)
}

// MockSessionService implements SessionServiceInterface for testing
type MockSessionService struct {
	RefreshFunc func(ctx context.Context, value string) (*services.RefreshResult, error)
	LogoutFunc  func(ctx context.Context, value string) error
}

func (m *MockSessionService) Refresh(ctx context.Context, value string) (*services.RefreshResult, error) {
	if m.RefreshFunc == nil {
		return nil, models.ErrRefreshTokenNotFound
	}
	return m.RefreshFunc(ctx, value)
}

func (m *MockSessionService) Logout(ctx context.Context, value string) error {
	if m.LogoutFunc == nil {
		return nil
	}
	return m.LogoutFunc(ctx, value)
}

// MockMFAService implements MFAServiceInterface for testing
type MockMFAService struct {
	BeginEnrollmentFunc  func(ctx context.Context, userID string) (*services.EnrollmentResult, error)
	VerifyEnrollmentFunc func(ctx context.Context, userID, code string) (*services.SessionResult, error)
	VerifyLoginFunc      func(ctx context.Context, userID, code string) (*services.SessionResult, error)
}

func (m *MockMFAService) BeginEnrollment(ctx context.Context, userID string) (*services.EnrollmentResult, error) {
	if m.BeginEnrollmentFunc == nil {
		return nil, models.ErrInternal
	}
	return m.BeginEnrollmentFunc(ctx, userID)
}

func (m *MockMFAService) VerifyEnrollment(ctx context.Context, userID, code string) (*services.SessionResult, error) {
	if m.VerifyEnrollmentFunc == nil {
		return nil, models.ErrTwoFactorInvalidCode
	}
	return m.VerifyEnrollmentFunc(ctx, userID, code)
}

func (m *MockMFAService) VerifyLogin(ctx context.Context, userID, code string) (*services.SessionResult, error) {
	if m.VerifyLoginFunc == nil {
		return nil, models.ErrTwoFactorInvalidCode
	}
	return m.VerifyLoginFunc(ctx, userID, code)
}
