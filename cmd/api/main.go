package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/background"
	"github.com/BradenHooton/fieldauth/internal/config"
	"github.com/BradenHooton/fieldauth/internal/database"
	"github.com/BradenHooton/fieldauth/internal/handlers"
	middlewareCustom "github.com/BradenHooton/fieldauth/internal/middleware"
	"github.com/BradenHooton/fieldauth/internal/models"
	"github.com/BradenHooton/fieldauth/internal/repositories"
	"github.com/BradenHooton/fieldauth/internal/routes"
	"github.com/BradenHooton/fieldauth/internal/services"
	pkgauth "github.com/BradenHooton/fieldauth/pkg/auth"
	pkghttp "github.com/BradenHooton/fieldauth/pkg/http"
	pkglogger "github.com/BradenHooton/fieldauth/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = db.Migrate(migrateCtx)
	migrateCancel()
	if err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Pending enrollments live in redis
	redisClient, err := database.NewRedisClient(&cfg.Redis, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db.Pool)
	refreshRepo := repositories.NewRefreshTokenRepository(db.Pool, cfg.Auth.RefreshTokenExpiry)
	enrollmentStore := repositories.NewEnrollmentStore(redisClient, cfg.TOTP.EnrollmentTTL)
	totpAttempts := repositories.NewTOTPAttemptStore(redisClient, cfg.TOTP.MaxAttempts, cfg.TOTP.AttemptWindow)

	// Initialize token and TOTP managers
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry, cfg.Auth.TokenIssuer)
	totpManager, err := auth.NewTOTPManager(cfg.TOTP.EncryptionKey, cfg.TOTP.Issuer, auth.SystemClock{})
	if err != nil {
		logger.Error("failed to initialize TOTP manager", slog.Any("error", err))
		os.Exit(1)
	}
	hasher := pkgauth.NewBcryptHasher(cfg.Auth.BcryptCost)

	auditLogger := pkglogger.NewAuditLogger(logger)
	lockoutPolicy := auth.LockoutPolicy{
		LockThreshold:  cfg.Lockout.LockThreshold,
		BlockThreshold: cfg.Lockout.BlockThreshold,
		LockDuration:   cfg.Lockout.LockDuration,
	}

	// Initialize services
	issuer := services.NewSessionIssuer(refreshRepo, tokenManager, logger)
	authService := services.NewAuthService(userRepo, issuer, hasher, auth.SystemClock{}, lockoutPolicy, logger, auditLogger)
	mfaService := services.NewMFAService(userRepo, enrollmentStore, totpAttempts, totpManager, issuer, logger, auditLogger)
	sessionService := services.NewSessionService(refreshRepo, userRepo, tokenManager, logger, auditLogger)

	// Initialize handlers
	cookieConfig := auth.CookieConfig{
		Domain:   cfg.Cookie.Domain,
		Secure:   cfg.Cookie.Secure,
		SameSite: cfg.Cookie.SameSite,
		MaxAge:   cfg.Auth.RefreshTokenExpiry,
	}
	authHandler := handlers.NewAuthHandler(authService, sessionService, cookieConfig)
	mfaHandler := handlers.NewMFAHandler(mfaService, cookieConfig)
	healthHandler := handlers.NewHealthHandler(db.HealthCheck, func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	})

	// Bootstrap first admin user if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, hasher, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	ipConfig := &pkghttp.IPConfig{TrustedProxies: cfg.Server.TrustedProxies}
	rateLimitConfig := middlewareCustom.DefaultAuthRateLimit()
	if cfg.Server.AuthRequestsPerMin > 0 {
		rateLimitConfig.RequestsPerMinute = cfg.Server.AuthRequestsPerMin
	}
	rateLimitConfig.IPConfig = ipConfig

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, authHandler, mfaHandler, healthHandler, tokenManager, rateLimitConfig)

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupManager := background.NewCleanupManager(refreshRepo, logger, cfg.Auth.CleanupInterval, cfg.Auth.RefreshTokenExpiry)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

func parseLogLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ensureAdminUser creates the first admin user if ADMIN_EMAIL and ADMIN_PASSWORD are set
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, hasher pkgauth.PasswordHasher, logger *slog.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		logger.Info("no ADMIN_EMAIL or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	// Check if admin already exists
	_, err := userRepo.GetByEmail(ctx, adminEmail)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	if err := pkgauth.ValidatePassword(adminPassword); err != nil {
		return fmt.Errorf("admin password rejected: %w", err)
	}

	hashedPassword, err := hasher.Hash(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Name:         "Admin",
		Role:         models.RoleAdmin,
	}

	if _, err = userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	logger.Info("admin user created", slog.String("email", pkglogger.SanitizedEmail(adminEmail)))
	return nil
}
