//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/handlers"
	middlewareCustom "github.com/BradenHooton/fieldauth/internal/middleware"
	"github.com/BradenHooton/fieldauth/internal/repositories"
	"github.com/BradenHooton/fieldauth/internal/routes"
	"github.com/BradenHooton/fieldauth/internal/services"
	pkgauth "github.com/BradenHooton/fieldauth/pkg/auth"
	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
	pkglogger "github.com/BradenHooton/fieldauth/pkg/logger"
)

const testJWTSecret = "test-secret-32-characters-long-for-testing"

// TestServer wraps httptest.Server with a real database and an in-memory redis
type TestServer struct {
	Server *httptest.Server
	DB     *TestDB
	Redis  *miniredis.Miniredis
	Tokens *auth.TokenManager

	redisClient *redis.Client
}

// NewTestServer wires the production router against db and a miniredis instance
func NewTestServer(db *TestDB) (*TestServer, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	mr, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start miniredis: %w", err)
	}
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	userRepo := repositories.NewUserRepository(db.Pool)
	refreshRepo := repositories.NewRefreshTokenRepository(db.Pool, 7*24*time.Hour)
	enrollments := repositories.NewEnrollmentStore(redisClient, 10*time.Minute)
	totpAttempts := repositories.NewTOTPAttemptStore(redisClient, 5, 15*time.Minute)

	tokenManager := auth.NewTokenManager(testJWTSecret, 15*time.Minute, "fieldauth-test")
	totpManager, err := auth.NewTOTPManager(bytes.Repeat([]byte{9}, 32), "FieldAuthTest", auth.SystemClock{})
	if err != nil {
		mr.Close()
		return nil, fmt.Errorf("failed to create TOTP manager: %w", err)
	}
	hasher := pkgauth.NewBcryptHasher(testBcryptCost)
	auditLogger := pkglogger.NewAuditLogger(logger)

	issuer := services.NewSessionIssuer(refreshRepo, tokenManager, logger)
	authService := services.NewAuthService(userRepo, issuer, hasher, auth.SystemClock{}, auth.DefaultLockoutPolicy(), logger, auditLogger)
	mfaService := services.NewMFAService(userRepo, enrollments, totpAttempts, totpManager, issuer, logger, auditLogger)
	sessionService := services.NewSessionService(refreshRepo, userRepo, tokenManager, logger, auditLogger)

	cookieConfig := auth.CookieConfig{SameSite: "strict", MaxAge: 7 * 24 * time.Hour}
	authHandler := handlers.NewAuthHandler(authService, sessionService, cookieConfig)
	mfaHandler := handlers.NewMFAHandler(mfaService, cookieConfig)
	healthHandler := handlers.NewHealthHandler(db.DB.HealthCheck, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	ipConfig := &pkghttp.IPConfig{}
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: "test"}))
	r.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	r.Use(chiMiddleware.Recoverer)

	// Lockout tests log in many times from one address
	routes.RegisterRoutes(r, authHandler, mfaHandler, healthHandler, tokenManager, middlewareCustom.RateLimitConfig{
		RequestsPerMinute: 1000,
		IPConfig:          ipConfig,
	})

	return &TestServer{
		Server:      httptest.NewServer(r),
		DB:          db,
		Redis:       mr,
		Tokens:      tokenManager,
		redisClient: redisClient,
	}, nil
}

// Close shuts down the test server and its redis
func (ts *TestServer) Close() {
	if ts.Server != nil {
		ts.Server.Close()
	}
	if ts.redisClient != nil {
		_ = ts.redisClient.Close()
	}
	if ts.Redis != nil {
		ts.Redis.Close()
	}
}

// Request makes an HTTP request to the test server
func (ts *TestServer) Request(method, path string, body interface{}, headers map[string]string) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return http.DefaultClient.Do(req)
}

// RequestWithAuth makes an HTTP request with a bearer access token
func (ts *TestServer) RequestWithAuth(method, path, accessToken string, body interface{}) (*http.Response, error) {
	return ts.Request(method, path, body, map[string]string{"Authorization": "Bearer " + accessToken})
}

// Login posts credentials to /auth/login
func (ts *TestServer) Login(email, password string) (*http.Response, error) {
	return ts.Request(http.MethodPost, "/auth/login", handlers.LoginRequest{Email: email, Password: password}, nil)
}

// ParseJSONResponse parses a JSON response body into target and closes it
func ParseJSONResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrorCode returns the machine-readable error code of an error response
func ErrorCode(resp *http.Response) (string, error) {
	var errResp pkghttp.ErrorResponse
	if err := ParseJSONResponse(resp, &errResp); err != nil {
		return "", err
	}
	return errResp.Error, nil
}

// RefreshCookieValue returns the refresh_token cookie set on resp, or ""
func RefreshCookieValue(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == auth.RefreshTokenCookieName {
			return c.Value
		}
	}
	return ""
}
