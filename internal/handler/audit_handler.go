package handler

import (
	"go-envoi-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

// GET /api/v1/audit?envoi_id=&after_id=&limit= — envoi scope optional here:
// admins may tail the whole trail.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	var eid *uuid.UUID
	if raw := c.Query("envoi_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid envoi_id"})
		}
		eid = &parsed
	}
	afterID := c.QueryInt("after_id", 0)
	if afterID < 0 {
		afterID = 0
	}
	events, err := h.auditService.List(eid, uint(afterID), c.QueryInt("limit", 100))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(events)
}
