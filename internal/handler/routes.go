package handler

import (
	"github.com/gofiber/fiber/v3"

	"movie-discovery-sinema/internal/middleware"
)

// RegisterRoutes mounts the session API under /api/v1.
func RegisterRoutes(app fiber.Router, h *SessionHandler) {
	requireSession := middleware.RequireSession(h.svc)

	api := app.Group("/api/v1")
	api.Get("/health", h.Health)

	// Session
	api.Post("/session", h.Login)
	api.Delete("/session", h.Logout)
	api.Get("/session", h.GetSession)
	api.Put("/session/view", h.ChangeView)

	// Catalog and ratings
	api.Get("/catalog", requireSession, h.SearchCatalog)
	api.Post("/ratings", requireSession, h.RateMovie)
	api.Get("/profile", requireSession, h.GetProfile)

	// Recommendations
	api.Get("/recommendations", requireSession, h.GetRecommendations)
	api.Post("/recommendations", requireSession, h.RefreshRecommendations)
}
