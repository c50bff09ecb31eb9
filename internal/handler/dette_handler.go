package handler

import (
	"time"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"
	"go-envoi-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DetteHandler struct {
	stockService   service.StockService
	produitService service.ProduitService
	detteRepo      repository.DetteRepository
}

func NewDetteHandler(stockService service.StockService, produitService service.ProduitService, detteRepo repository.DetteRepository) *DetteHandler {
	return &DetteHandler{
		stockService:   stockService,
		produitService: produitService,
		detteRepo:      detteRepo,
	}
}

type DetteRequest struct {
	ProduitID        uuid.UUID        `json:"produit_id"`
	Client           string           `json:"client"`
	QuantitePretee   int              `json:"quantite_pretee"`
	PrixUnitaireCfa  *decimal.Decimal `json:"prix_unitaire_cfa"`
	DatePret         *time.Time       `json:"date_pret"`
	DateRetourPrevue *time.Time       `json:"date_retour_prevue"`
}

type detteView struct {
	model.Dette
	Statut model.StatutDette `json:"statut"`
}

func withStatut(d model.Dette) detteView {
	return detteView{Dette: d, Statut: d.Statut(time.Now())}
}

// GET /api/v1/dettes?envoi_id=&client=
func (h *DetteHandler) List(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	dettes, err := h.detteRepo.FindByEnvoi(eid, c.Query("client"))
	if err != nil {
		return serviceError(c, err)
	}
	views := make([]detteView, len(dettes))
	for i, d := range dettes {
		views[i] = withStatut(d)
	}
	return c.JSON(views)
}

// GET /api/v1/dettes/:id
func (h *DetteHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid dette id"})
	}
	dette, err := h.detteRepo.FindByID(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(withStatut(*dette))
}

// POST /api/v1/dettes?envoi_id=
func (h *DetteHandler) Create(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var req DetteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	produit, err := h.produitService.FindByID(req.ProduitID)
	if err != nil {
		return serviceError(c, err)
	}
	if produit.EnvoiID != eid {
		return c.Status(422).JSON(fiber.Map{"error": "produit does not belong to this envoi"})
	}

	dette := &model.Dette{
		ProduitID:        req.ProduitID,
		Client:           req.Client,
		QuantitePretee:   req.QuantitePretee,
		PrixUnitaireCfa:  req.PrixUnitaireCfa,
		DateRetourPrevue: req.DateRetourPrevue,
	}
	if req.DatePret != nil {
		dette.DatePret = *req.DatePret
	}

	created, err := h.stockService.CreateDette(dette, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(withStatut(*created))
}

// PUT /api/v1/dettes/:id — client, expected date, price (while open).
func (h *DetteHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid dette id"})
	}
	var req service.DetteUpdate
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	dette, err := h.stockService.UpdateDette(id, &req, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(withStatut(*dette))
}

type SettleRequest struct {
	DateRetourEffective *time.Time `json:"date_retour_effective"`
}

// POST /api/v1/dettes/:id/settle
func (h *DetteHandler) Settle(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid dette id"})
	}
	var req SettleRequest
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	date := time.Now()
	if req.DateRetourEffective != nil {
		date = *req.DateRetourEffective
	}
	dette, err := h.stockService.SettleDette(id, date, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(withStatut(*dette))
}

// POST /api/v1/dettes/:id/reopen
func (h *DetteHandler) Reopen(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid dette id"})
	}
	dette, err := h.stockService.ReopenDette(id, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(withStatut(*dette))
}

// DELETE /api/v1/dettes/:id
func (h *DetteHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid dette id"})
	}
	if err := h.stockService.DeleteDette(id, actor(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "dette deleted"})
}
