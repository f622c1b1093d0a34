package response

import "github.com/gofiber/fiber/v2"

// Body represents the standard API response envelope
type Body struct {
	Status  bool              `json:"status"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK sends a success response
func OK(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(Body{
		Status:  true,
		Message: message,
		Data:    data,
	})
}

// JSON sends a success response with an arbitrary payload merged into
// the envelope (for endpoints whose shape predates the envelope).
func JSON(c *fiber.Ctx, payload fiber.Map) error {
	payload["status"] = true
	return c.JSON(payload)
}

// Error sends an error response
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(Body{
		Status: false,
		Error:  message,
	})
}

// Validation sends a 422 response with field-keyed messages
func Validation(c *fiber.Ctx, fields map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(Body{
		Status: false,
		Errors: fields,
	})
}

// BadRequest sends a 400 bad request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized sends a 401 unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, message)
}

// NotFound sends a 404 not found response
func NotFound(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusNotFound, message)
}

// InternalServerError sends a 500 internal server error response
func InternalServerError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusInternalServerError, message)
}
