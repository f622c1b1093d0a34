package handlers

import (
	"errors"

	"offertrack/internal/core/domain"
	"offertrack/internal/core/services"
	"offertrack/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles member login
// @Summary Login
// @Description Authenticate by username or email and issue a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Body
// @Failure 401 {object} response.Body
// @Failure 422 {object} response.Body
// @Router /login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.authService.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			return response.Validation(c, verr.Fields)
		case errors.Is(err, domain.ErrInvalidCredentials):
			return response.Unauthorized(c, "Invalid credentials")
		default:
			return response.InternalServerError(c, "Failed to login")
		}
	}

	return response.JSON(c, fiber.Map{"user": user})
}

// Validate confirms the bearer token resolves to a member
// @Summary Validate token
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Body
// @Failure 401 {object} response.Body
// @Router /validate [get]
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	// AuthMiddleware already resolved the token
	return response.JSON(c, fiber.Map{})
}
