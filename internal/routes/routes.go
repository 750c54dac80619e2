package routes

import (
	"github.com/BradenHooton/fieldauth/internal/auth"
	"github.com/BradenHooton/fieldauth/internal/handlers"
	"github.com/BradenHooton/fieldauth/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	mfaHandler *handlers.MFAHandler,
	healthHandler *handlers.HealthHandler,
	validator auth.AccessTokenValidator,
	rateLimitConfig middleware.RateLimitConfig,
) {
	router.Get("/health", healthHandler.Health)

	router.Route("/auth", func(r chi.Router) {
		// Public routes - brute-force targets are rate limited per client IP
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/login", authHandler.Login)
		r.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/2fa/verify-login", mfaHandler.VerifyLogin)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)

		// Protected routes - bearer access token required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(validator))
			r.Use(middleware.RateLimitByUser(rateLimitConfig))

			r.Post("/2fa/setup", mfaHandler.Setup)
			r.Post("/2fa/verify-setup", mfaHandler.VerifySetup)
		})
	})
}
