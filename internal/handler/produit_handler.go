package handler

import (
	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type ProduitHandler struct {
	produitService service.ProduitService
	stockService   service.StockService
}

func NewProduitHandler(produitService service.ProduitService, stockService service.StockService) *ProduitHandler {
	return &ProduitHandler{produitService: produitService, stockService: stockService}
}

// ProduitRequest wraps the product fields plus the opening quantity, which
// is fed through the stock engine as an achat.
type ProduitRequest struct {
	Nom                   string           `json:"nom"`
	Caracteristiques      string           `json:"caracteristiques"`
	Categorie             string           `json:"categorie"`
	PrixAchatUnitaireEuro *decimal.Decimal `json:"prix_achat_unitaire_euro"`
	PrixVenteUnitaireCfa  *decimal.Decimal `json:"prix_vente_unitaire_cfa"`
	ImageURL              string           `json:"image_url"`
	QuantiteInitiale      int              `json:"quantite_initiale"`
}

// GET /api/v1/produits?envoi_id=&search=&categorie=
func (h *ProduitHandler) List(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	produits, err := h.produitService.FindByEnvoi(eid, c.Query("search"), c.Query("categorie"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(produits)
}

// GET /api/v1/produits/categories?envoi_id=
func (h *ProduitHandler) Categories(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	categories, err := h.produitService.Categories(eid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(categories)
}

// GET /api/v1/produits/:id
func (h *ProduitHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid produit id"})
	}
	produit, err := h.produitService.FindByID(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(produit)
}

// POST /api/v1/produits?envoi_id=
func (h *ProduitHandler) Create(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var req ProduitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	produit := &model.Produit{
		EnvoiID:               eid,
		Nom:                   req.Nom,
		Caracteristiques:      req.Caracteristiques,
		Categorie:             req.Categorie,
		PrixAchatUnitaireEuro: req.PrixAchatUnitaireEuro,
		PrixVenteUnitaireCfa:  req.PrixVenteUnitaireCfa,
		ImageURL:              req.ImageURL,
	}
	created, err := h.produitService.Create(produit, req.QuantiteInitiale, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(created)
}

// PUT /api/v1/produits/:id
func (h *ProduitHandler) Update(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid produit id"})
	}
	var req ProduitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}
	produit := &model.Produit{
		Nom:                   req.Nom,
		Caracteristiques:      req.Caracteristiques,
		Categorie:             req.Categorie,
		PrixAchatUnitaireEuro: req.PrixAchatUnitaireEuro,
		PrixVenteUnitaireCfa:  req.PrixVenteUnitaireCfa,
		ImageURL:              req.ImageURL,
	}
	updated, err := h.produitService.Update(id, produit, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(updated)
}

// DELETE /api/v1/produits/:id — cascades to transactions, dettes, stock.
func (h *ProduitHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid produit id"})
	}
	if err := h.produitService.Delete(id, actor(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "produit deleted"})
}

// GET /api/v1/stocks?envoi_id=
func (h *ProduitHandler) Stocks(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	stocks, err := h.stockService.StocksByEnvoi(eid)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stocks)
}

// GET /api/v1/produits/:id/stock
func (h *ProduitHandler) Stock(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid produit id"})
	}
	stock, err := h.stockService.GetStock(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(stock)
}
