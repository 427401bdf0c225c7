package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mwarner/loginguard/internal/handlers"
	"github.com/mwarner/loginguard/internal/middleware"
	pkghttp "github.com/mwarner/loginguard/pkg/http"
)

// RegisterRoutes registers all decision engine routes
func RegisterRoutes(
	router chi.Router,
	decideHandler *handlers.DecideHandler,
	adminHandler *handlers.AdminHandler,
	adminKey string,
) {
	// The engine is a JSON API; unknown routes answer in kind.
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Resource not found")
	})

	// Scoring endpoint: called by enforcement points on every login, so it
	// carries no rate limit of its own.
	router.Post("/decide", decideHandler.Decide)

	// Admin routes - shared key required
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminKey(adminKey))
		r.Use(middleware.RateLimitByIP(middleware.DefaultAdminRateLimit()))

		r.Get("/admin/blocked", adminHandler.ListBlocked)
		r.Post("/admin/unblock", adminHandler.Unblock)
		r.Get("/admin/scores", adminHandler.Scores)
	})
}
