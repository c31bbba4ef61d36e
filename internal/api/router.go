package api

import (
	"net/http"
	"time"

	"intervue/internal/api/handler"
	"intervue/internal/app/service"
	"intervue/internal/common/security"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	experienceService *service.ExperienceService,
	extractionService *service.ExtractionService,
	engagementService *service.EngagementService,
	extractionTimeout time.Duration,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies a bearer token when present and puts its claims in context.
	// Route groups decide whether a valid token is required.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	// Public health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// API v1 Routes
	r.Route("/api/v1", func(v1 chi.Router) {
		// Auth routes (public signup/login plus /users/me)
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(auth chi.Router) {
			authHandler.RegisterRoutes(auth)
		})

		// Experience routes, with upvotes and comments nested underneath
		experienceHandler := handler.NewExperienceHandler(experienceService, extractionService, extractionTimeout)
		engagementHandler := handler.NewEngagementHandler(engagementService)
		v1.Route("/experiences", func(exp chi.Router) {
			experienceHandler.RegisterRoutes(exp)
			engagementHandler.RegisterExperienceRoutes(exp)
		})

		// Comment deletion is addressed by comment ID
		v1.Route("/comments", engagementHandler.RegisterCommentRoutes)

		// Round routes (owner only)
		roundHandler := handler.NewRoundHandler(experienceService)
		v1.Route("/rounds", roundHandler.RegisterRoutes)

		// Moderation routes (admin only)
		adminHandler := handler.NewAdminHandler(experienceService)
		v1.Route("/admin", adminHandler.RegisterRoutes)
	})

	return r
}
