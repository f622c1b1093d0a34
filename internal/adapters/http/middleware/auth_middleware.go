package middleware

import (
	"strings"

	"offertrack/internal/core/services"
	"offertrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MemberLocal is the request-locals key the authenticated member is
// stored under.
const MemberLocal = "member"

// AuthMiddleware resolves the bearer token to a member and stores it
// in request locals, or rejects the request with 401.
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		authHeader := c.Get("Authorization")
		if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			return response.Unauthorized(c, "Unauthorized")
		}

		member, err := authService.ValidateToken(c.Context(), token)
		if err != nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		c.Locals(MemberLocal, member)
		return c.Next()
	}
}
