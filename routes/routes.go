package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/login-telemetry/app"
	"github.com/upb/login-telemetry/handlers"
	"github.com/upb/login-telemetry/middleware"
	"github.com/upb/login-telemetry/utils"
)

// SetupRoutes configures all application routes and middleware.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer(deps.Logger))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Health probes
	r.Get("/", handlers.HealthHandler(deps))
	r.Get("/readyz", handlers.ReadinessHandler(deps))

	// Ingestion endpoint, gated by the per-minute throttle
	r.With(deps.RateLimiter.Handler).Post("/login", handlers.LoginHandler(deps))

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusNotFound, "Not found")
	})

	return r
}
