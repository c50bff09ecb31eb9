package handler

import (
	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type EnvoiHandler struct {
	envoiService service.EnvoiService
}

func NewEnvoiHandler(envoiService service.EnvoiService) *EnvoiHandler {
	return &EnvoiHandler{envoiService: envoiService}
}

// GET /api/v1/envois?include_archived=true
func (h *EnvoiHandler) List(c *fiber.Ctx) error {
	envois, err := h.envoiService.FindAll(c.QueryBool("include_archived"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(envois)
}

// GET /api/v1/envois/:id
func (h *EnvoiHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid envoi id"})
	}
	envoi, err := h.envoiService.FindByID(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(envoi)
}

// POST /api/v1/envois
func (h *EnvoiHandler) Create(c *fiber.Ctx) error {
	var req model.Envoi
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	envoi, err := h.envoiService.Create(&req, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(envoi)
}

// PUT /api/v1/envois/:id
func (h *EnvoiHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid envoi id"})
	}
	var req model.Envoi
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	envoi, err := h.envoiService.Update(id, &req, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(envoi)
}

// DELETE /api/v1/envois/:id — cascades to everything the envoi owns.
func (h *EnvoiHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid envoi id"})
	}
	if err := h.envoiService.Delete(id, actor(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "envoi deleted"})
}

// DELETE /api/v1/envois/:id/purge — empties the envoi, keeps the envoi row.
func (h *EnvoiHandler) Purge(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid envoi id"})
	}
	if err := h.envoiService.Purge(id, actor(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "envoi purged"})
}
