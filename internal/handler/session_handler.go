package handler

import (
	"errors"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"movie-discovery-sinema/internal/models"
	"movie-discovery-sinema/internal/repository"
	"movie-discovery-sinema/internal/service"
)

// SessionHandler handles HTTP requests for the local session.
type SessionHandler struct {
	svc      *service.SessionService
	validate *validator.Validate
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(svc *service.SessionService) *SessionHandler {
	return &SessionHandler{
		svc:      svc,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health returns service health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *SessionHandler) Health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "sinema",
	})
}

// Login starts a session and loads the default catalog.
// @Summary Log in
// @Tags session
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Username"
// @Success 200 {object} models.SessionState
// @Failure 400 {object} ErrorResponse
// @Router /session [post]
func (h *SessionHandler) Login(c fiber.Ctx) error {
	var req models.LoginRequest
	if err := h.bind(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if _, err := h.svc.Login(c.Context(), req.Username); err != nil {
		if errors.Is(err, service.ErrUsernameRequired) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		slog.Error("login failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to start session"})
	}

	return c.JSON(h.svc.Snapshot())
}

// Logout clears the stored profile.
// @Summary Log out
// @Tags session
// @Success 204
// @Failure 500 {object} ErrorResponse
// @Router /session [delete]
func (h *SessionHandler) Logout(c fiber.Ctx) error {
	if err := h.svc.Logout(c.Context()); err != nil {
		slog.Error("logout failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear session"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSession returns the full session state.
func (h *SessionHandler) GetSession(c fiber.Ctx) error {
	return c.JSON(h.svc.Snapshot())
}

// ChangeView switches the current view.
// @Summary Change view
// @Tags session
// @Accept json
// @Produce json
// @Param body body models.ChangeViewRequest true "View"
// @Success 200 {object} models.SessionState
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /session/view [put]
func (h *SessionHandler) ChangeView(c fiber.Ctx) error {
	var req models.ChangeViewRequest
	if err := h.bind(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	if err := h.svc.ChangeView(c.Context(), req.View); err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(h.svc.Snapshot())
}

// SearchCatalog replaces the catalog with results for q.
// @Summary Search movies
// @Tags catalog
// @Produce json
// @Param q query string false "Search text"
// @Success 200 {object} models.MovieListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /catalog [get]
func (h *SessionHandler) SearchCatalog(c fiber.Ctx) error {
	movies, err := h.svc.TrySearch(c.Context(), c.Query("q"))
	if err != nil {
		return h.serviceError(c, err)
	}

	return c.JSON(models.MovieListResponse{
		Query: h.svc.Snapshot().SearchQuery,
		Data:  movies,
	})
}

// RateMovie records a 1-5 rating.
// @Summary Rate a movie
// @Tags ratings
// @Accept json
// @Produce json
// @Param body body models.RateMovieRequest true "Rating"
// @Success 200 {object} models.UserProfile
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /ratings [post]
func (h *SessionHandler) RateMovie(c fiber.Ctx) error {
	var req models.RateMovieRequest
	if err := h.bind(c, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
	}

	profile, err := h.svc.Rate(c.Context(), req.MovieID, req.MovieTitle, req.Rating)
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile returns the user's ratings, newest first.
// @Summary Get profile
// @Tags profile
// @Produce json
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} ErrorResponse
// @Router /profile [get]
func (h *SessionHandler) GetProfile(c fiber.Ctx) error {
	user := h.svc.User()
	if user == nil {
		return h.serviceError(c, service.ErrNotAuthenticated)
	}

	return c.JSON(models.ProfileResponse{
		Username: user.Username,
		Count:    len(user.Ratings),
		Ratings:  user.RatedNewestFirst(),
	})
}

// GetRecommendations returns the current recommendation list.
func (h *SessionHandler) GetRecommendations(c fiber.Ctx) error {
	return c.JSON(models.MovieListResponse{Data: h.svc.Recommendations()})
}

// RefreshRecommendations fetches a new recommendation list.
// @Summary Refresh recommendations
// @Tags recommendations
// @Produce json
// @Success 200 {object} models.MovieListResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 412 {object} ErrorResponse
// @Router /recommendations [post]
func (h *SessionHandler) RefreshRecommendations(c fiber.Ctx) error {
	recs, err := h.svc.TryRefreshRecommendations(c.Context())
	if err != nil {
		return h.serviceError(c, err)
	}
	return c.JSON(models.MovieListResponse{Data: recs})
}

func (h *SessionHandler) bind(c fiber.Ctx, out any) error {
	if err := c.Bind().JSON(out); err != nil {
		return errors.New("invalid request body")
	}
	if err := h.validate.Struct(out); err != nil {
		return err
	}
	return nil
}

func (h *SessionHandler) serviceError(c fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotAuthenticated), errors.Is(err, repository.ErrNoActiveSession):
		status = fiber.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidView), errors.Is(err, repository.ErrInvalidRating):
		status = fiber.StatusBadRequest
	case errors.Is(err, service.ErrNotEnoughRatings):
		status = fiber.StatusPreconditionFailed
	case errors.Is(err, service.ErrBusy):
		status = fiber.StatusConflict
	default:
		slog.Error("request failed", "path", c.Path(), "error", err)
		return c.Status(status).JSON(ErrorResponse{Error: "internal error"})
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}
