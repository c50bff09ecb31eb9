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

type TransactionHandler struct {
	stockService    service.StockService
	produitService  service.ProduitService
	transactionRepo repository.TransactionRepository
}

func NewTransactionHandler(stockService service.StockService, produitService service.ProduitService, transactionRepo repository.TransactionRepository) *TransactionHandler {
	return &TransactionHandler{
		stockService:    stockService,
		produitService:  produitService,
		transactionRepo: transactionRepo,
	}
}

type TransactionRequest struct {
	ProduitID         uuid.UUID        `json:"produit_id"`
	Type              string           `json:"type_transaction"`
	Quantite          int              `json:"quantite"`
	PrixUnitaireEuro  *decimal.Decimal `json:"prix_unitaire_euro"`
	PrixUnitaireCfa   *decimal.Decimal `json:"prix_unitaire_cfa"`
	DateTransaction   *time.Time       `json:"date_transaction"`
	ClientFournisseur string           `json:"client_fournisseur"`
	Notes             string           `json:"notes"`
}

// GET /api/v1/transactions?envoi_id=&type=&from=&to=
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid 'from' date, expected YYYY-MM-DD"})
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid 'to' date, expected YYYY-MM-DD"})
		}
		to = &t
	}
	transactions, err := h.transactionRepo.FindByEnvoi(eid, c.Query("type"), from, to)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(transactions)
}

// GET /api/v1/transactions/:id
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid transaction id"})
	}
	transaction, err := h.transactionRepo.FindByID(id)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(transaction)
}

// POST /api/v1/transactions?envoi_id=
func (h *TransactionHandler) Create(c *fiber.Ctx) error {
	eid, err := envoiID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	var req TransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	// The product must belong to the requested envoi.
	produit, err := h.produitService.FindByID(req.ProduitID)
	if err != nil {
		return serviceError(c, err)
	}
	if produit.EnvoiID != eid {
		return c.Status(422).JSON(fiber.Map{"error": "produit does not belong to this envoi"})
	}

	transaction := &model.Transaction{
		ProduitID:         req.ProduitID,
		Type:              model.TypeTransaction(req.Type),
		Quantite:          req.Quantite,
		PrixUnitaireEuro:  req.PrixUnitaireEuro,
		PrixUnitaireCfa:   req.PrixUnitaireCfa,
		ClientFournisseur: req.ClientFournisseur,
		Notes:             req.Notes,
	}
	if req.DateTransaction != nil {
		transaction.DateTransaction = *req.DateTransaction
	}

	created, err := h.stockService.CreateTransaction(transaction, actor(c))
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(201).JSON(created)
}

// DELETE /api/v1/transactions/:id — reverses the stock effect.
func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid transaction id"})
	}
	if err := h.stockService.DeleteTransaction(id, actor(c)); err != nil {
		return serviceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "transaction deleted"})
}
