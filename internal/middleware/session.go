package middleware

import (
	"github.com/gofiber/fiber/v3"

	"movie-discovery-sinema/internal/models"
)

// SessionReader exposes the logged-in profile.
type SessionReader interface {
	User() *models.UserProfile
}

// RequireSession rejects requests with 401 until a user has logged in.
// The username is stored in Locals under "username".
func RequireSession(sessions SessionReader) fiber.Handler {
	return func(c fiber.Ctx) error {
		user := sessions.User()
		if user == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "no user logged in",
			})
		}

		c.Locals("username", user.Username)
		return c.Next()
	}
}
