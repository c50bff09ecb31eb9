package handler

import (
	"time"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TauxHandler struct {
	tauxService service.TauxService
}

func NewTauxHandler(tauxService service.TauxService) *TauxHandler {
	return &TauxHandler{tauxService: tauxService}
}

type TauxRequest struct {
	TauxEuroCfa     decimal.Decimal `json:"taux_euro_cfa"`
	DateApplication *time.Time      `json:"date_application"`
}

// GET /api/v1/taux?envoi_id=
func (h *TauxHandler) List(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	rates, err := h.tauxService.FindByEnvoi(eid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(rates)
}

// GET /api/v1/taux/current?envoi_id= — taux may legitimately be absent.
func (h *TauxHandler) Current(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	taux, err := h.tauxService.Current(eid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"taux": taux})
}

// POST /api/v1/taux?envoi_id=
func (h *TauxHandler) Create(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var req TauxRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	taux := &model.TauxChange{
		EnvoiID:         eid,
		TauxEuroCfa:     req.TauxEuroCfa,
		DateApplication: time.Now(),
	}
	if req.DateApplication != nil {
		taux.DateApplication = *req.DateApplication
	}
	created, err := h.tauxService.Create(taux, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(created)
}

// DELETE /api/v1/taux/:id
func (h *TauxHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid taux id"})
	}
	if err := h.tauxService.Delete(id, actor(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "taux deleted"})
}
