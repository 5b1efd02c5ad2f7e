package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nightpass/curfew/internal/delivery/http/middleware"
	"github.com/nightpass/curfew/internal/domain"
	"github.com/nightpass/curfew/internal/pkg/config"
	"github.com/nightpass/curfew/internal/pkg/jwt"
	"github.com/nightpass/curfew/internal/pkg/logger"
)

// Router holds all HTTP router dependencies
type Router struct {
	authHandler   *AuthHandler
	passHandler   *PassHandler
	verifyHandler *VerifyHandler
	tokenService  *jwt.TokenService
	config        *config.Config
	logger        logger.Logger
}

// NewRouter creates a new HTTP router
func NewRouter(
	authHandler *AuthHandler,
	passHandler *PassHandler,
	verifyHandler *VerifyHandler,
	tokenService *jwt.TokenService,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		authHandler:   authHandler,
		passHandler:   passHandler,
		verifyHandler: verifyHandler,
		tokenService:  tokenService,
		config:        config,
		logger:        logger,
	}
}

// Setup wires all routes
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: rt.config.CORS.AllowedOrigins,
		AllowedMethods: rt.config.CORS.AllowedMethods,
		AllowedHeaders: rt.config.CORS.AllowedHeaders,
	}))

	// Health check endpoint (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no authentication)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", rt.authHandler.Register)
			r.Post("/login", rt.authHandler.Login)
			r.Post("/refresh", rt.authHandler.RefreshToken)
			r.Post("/logout", rt.authHandler.Logout)
		})

		// Scan endpoint (public - used by checkpoint scanner devices)
		r.Post("/verify/scan", rt.verifyHandler.VerifyScan)

		// Protected routes (authentication required)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.tokenService))

			// Current user endpoints
			r.Get("/auth/me", rt.authHandler.GetMe)

			// Pass endpoints
			r.Route("/passes", func(r chi.Router) {
				r.Post("/", rt.passHandler.SubmitPass)
				r.Get("/", rt.passHandler.ListPasses)
				r.Get("/{id}", rt.passHandler.GetPassByID)
				r.Get("/{id}/qr", rt.passHandler.GetPassQR)

				// Admin only endpoints
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(domain.RoleAdmin))
					r.Post("/{id}/approve", rt.passHandler.ApprovePass)
					r.Post("/{id}/deny", rt.passHandler.DenyPass)
					r.Get("/stats", rt.passHandler.GetPassStats)
				})
			})

			// User management endpoints (admin only)
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Get("/", rt.authHandler.GetUsers)
				r.Put("/{id}/role", rt.authHandler.UpdateUserRole)
			})

			// Verification log endpoints (admin only)
			r.Route("/verify", func(r chi.Router) {
				r.Use(middleware.RequireRole(domain.RoleAdmin))
				r.Get("/logs", rt.verifyHandler.GetLogs)
				r.Get("/stats", rt.verifyHandler.GetLogStats)
			})
		})
	})

	return r
}
