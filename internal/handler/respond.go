package handler

import (
	"errors"

	"go-envoi-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// actor returns the authenticated user's email for audit attribution.
func actor(c *fiber.Ctx) string {
	if email, ok := c.Locals("user_email").(string); ok {
		return email
	}
	return ""
}

// envoiID reads the envoi scope from the envoi_id query parameter or the
// X-Envoi-Id header.
func envoiID(c *fiber.Ctx) (uuid.UUID, error) {
	raw := c.Query("envoi_id")
	if raw == "" {
		raw = c.Get("X-Envoi-Id")
	}
	if raw == "" {
		return uuid.Nil, errors.New("envoi_id is required (query parameter or X-Envoi-Id header)")
	}
	return uuid.Parse(raw)
}

func pathID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

// serviceError maps the service error taxonomy to HTTP responses.
func serviceError(c *fiber.Ctx, err error) error {
	var validationErr *service.ValidationError
	var stockErr *service.InsufficientStockError
	var invariantErr *service.InvariantViolationError

	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": "not found"})
	case errors.Is(err, service.ErrMissingPrice):
		return c.Status(422).JSON(fiber.Map{"error": err.Error()})
	case errors.As(err, &validationErr):
		return c.Status(422).JSON(fiber.Map{"error": validationErr.Msg})
	case errors.As(err, &stockErr):
		return c.Status(409).JSON(fiber.Map{
			"error":     stockErr.Error(),
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.As(err, &invariantErr):
		return c.Status(409).JSON(fiber.Map{"error": invariantErr.Error()})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "internal server error"})
	}
}
