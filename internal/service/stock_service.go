package service

import (
	"errors"
	"fmt"
	"time"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"
	"go-envoi-inventory/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockService is the single write path for everything that moves stock:
// purchase/sale transactions and credit-sale debts. Every mutation runs in
// one DB transaction, holds the per-product lock, recomputes the stock
// counters from the logs and aborts if an invariant would break.
type StockService interface {
	CreateTransaction(req *model.Transaction, actor string) (*model.Transaction, error)
	DeleteTransaction(id uuid.UUID, actor string) error
	CreateDette(req *model.Dette, actor string) (*model.Dette, error)
	UpdateDette(id uuid.UUID, req *DetteUpdate, actor string) (*model.Dette, error)
	SettleDette(id uuid.UUID, dateRetour time.Time, actor string) (*model.Dette, error)
	ReopenDette(id uuid.UUID, actor string) (*model.Dette, error)
	DeleteDette(id uuid.UUID, actor string) error
	GetStock(produitID uuid.UUID) (*model.Stock, error)
	StocksByEnvoi(envoiID uuid.UUID) ([]model.Stock, error)
}

// DetteUpdate carries the editable fields of an open debt. Product and
// quantity are deliberately absent: delete and recreate instead.
type DetteUpdate struct {
	Client           *string          `json:"client"`
	PrixUnitaireCfa  *decimal.Decimal `json:"prix_unitaire_cfa"`
	DateRetourPrevue *time.Time       `json:"date_retour_prevue"`
}

type stockService struct {
	produitRepo     repository.ProduitRepository
	stockRepo       repository.StockRepository
	transactionRepo repository.TransactionRepository
	detteRepo       repository.DetteRepository
	tauxRepo        repository.TauxRepository
	auditSvc        AuditService
	db              *gorm.DB
	locks           *keyedMutex
}

func NewStockService(
	produitRepo repository.ProduitRepository,
	stockRepo repository.StockRepository,
	transactionRepo repository.TransactionRepository,
	detteRepo repository.DetteRepository,
	tauxRepo repository.TauxRepository,
	auditSvc AuditService,
	db *gorm.DB,
) StockService {
	return &stockService{
		produitRepo:     produitRepo,
		stockRepo:       stockRepo,
		transactionRepo: transactionRepo,
		detteRepo:       detteRepo,
		tauxRepo:        tauxRepo,
		auditSvc:        auditSvc,
		db:              db,
		locks:           newKeyedMutex(),
	}
}

// lockProduit loads the product row inside the transaction, FOR UPDATE on
// postgres. Other dialects rely on the in-process keyed mutex alone.
func lockProduit(tx *gorm.DB, id uuid.UUID) (*model.Produit, error) {
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var produit model.Produit
	if err := q.First(&produit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &produit, nil
}

// recomputeStock rebuilds the counters from the transaction and debt logs
// and persists them. The logs are the source of truth; the stock row is a
// cache that is only ever written here.
func (s *stockService) recomputeStock(tx *gorm.DB, produit *model.Produit) (*model.Stock, error) {
	achats, err := s.transactionRepo.SumQuantiteForUpdate(tx, produit.ID, model.TxAchat)
	if err != nil {
		return nil, err
	}
	ventes, err := s.transactionRepo.SumQuantiteForUpdate(tx, produit.ID, model.TxVente)
	if err != nil {
		return nil, err
	}
	dettesTotal, err := s.detteRepo.SumPreteeForUpdate(tx, produit.ID)
	if err != nil {
		return nil, err
	}
	dettesSoldees, err := s.detteRepo.SumSoldeeForUpdate(tx, produit.ID)
	if err != nil {
		return nil, err
	}

	restante := achats - ventes - dettesTotal
	if restante < 0 {
		return nil, &InvariantViolationError{ProduitNom: produit.Nom, Restante: restante}
	}

	var stock model.Stock
	err = tx.First(&stock, "produit_id = ?", produit.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		stock = model.Stock{ProduitID: produit.ID}
	} else if err != nil {
		return nil, err
	}

	stock.QuantiteInitial = achats
	stock.QuantiteVendue = ventes + dettesSoldees
	stock.QuantitePretee = dettesTotal - dettesSoldees
	stock.QuantiteRestante = restante
	if err := s.stockRepo.Save(tx, &stock); err != nil {
		return nil, err
	}
	return &stock, nil
}

// restanteOf reads the current available quantity from the logs, inside the
// caller's transaction.
func (s *stockService) restanteOf(tx *gorm.DB, produitID uuid.UUID) (int, error) {
	achats, err := s.transactionRepo.SumQuantiteForUpdate(tx, produitID, model.TxAchat)
	if err != nil {
		return 0, err
	}
	ventes, err := s.transactionRepo.SumQuantiteForUpdate(tx, produitID, model.TxVente)
	if err != nil {
		return 0, err
	}
	dettes, err := s.detteRepo.SumPreteeForUpdate(tx, produitID)
	if err != nil {
		return 0, err
	}
	return achats - ventes - dettes, nil
}

func firstValidationError(errs []*validator.ErrorResponse) error {
	if len(errs) == 0 {
		return nil
	}
	return validationErrorf("validation failed: field '%s' failed on tag '%s'", errs[0].FailedField, errs[0].Tag)
}

func (s *stockService) CreateTransaction(req *model.Transaction, actor string) (*model.Transaction, error) {
	if err := firstValidationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if req.DateTransaction.IsZero() {
		req.DateTransaction = time.Now()
	}

	s.locks.Lock(req.ProduitID)
	defer s.locks.Unlock(req.ProduitID)

	var stock *model.Stock
	var produit *model.Produit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		produit, err = lockProduit(tx, req.ProduitID)
		if err != nil {
			return err
		}

		if err := s.resolvePrices(req, produit); err != nil {
			return err
		}

		if req.Type == model.TxVente {
			restante, err := s.restanteOf(tx, produit.ID)
			if err != nil {
				return err
			}
			if restante < req.Quantite {
				return &InsufficientStockError{ProduitNom: produit.Nom, Requested: req.Quantite, Available: restante}
			}
		}

		req.CreatedBy = actor
		req.UpdatedBy = actor
		if err := tx.Create(req).Error; err != nil {
			return err
		}

		stock, err = s.recomputeStock(tx, produit)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &produit.EnvoiID, model.AuditCreate, "transaction", req.ID.String(),
		fmt.Sprintf("%s de %d x %s", req.Type, req.Quantite, produit.Nom),
		map[string]interface{}{"produit_id": produit.ID, "quantite_restante": stock.QuantiteRestante})
	return req, nil
}

func (s *stockService) DeleteTransaction(id uuid.UUID, actor string) error {
	existing, err := s.transactionRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.locks.Lock(existing.ProduitID)
	defer s.locks.Unlock(existing.ProduitID)

	var produit *model.Produit
	err = s.db.Transaction(func(tx *gorm.DB) error {
		produit, err = lockProduit(tx, existing.ProduitID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&model.Transaction{}, "id = ?", id).Error; err != nil {
			return err
		}
		// Recompute rejects the delete when removing an achat would leave
		// less stock than already sold or loaned out.
		_, err := s.recomputeStock(tx, produit)
		return err
	})
	if err != nil {
		return err
	}

	s.auditSvc.Record(actor, &produit.EnvoiID, model.AuditDelete, "transaction", id.String(),
		fmt.Sprintf("suppression %s de %d x %s", existing.Type, existing.Quantite, produit.Nom), nil)
	return nil
}

// resolvePrices fills the missing price sides of a transaction at record
// time. Ventes must end up with a CFA price; achats may stay unpriced.
func (s *stockService) resolvePrices(req *model.Transaction, produit *model.Produit) error {
	switch req.Type {
	case model.TxAchat:
		if req.PrixUnitaireEuro == nil {
			req.PrixUnitaireEuro = produit.PrixAchatUnitaireEuro
		}
	case model.TxVente:
		if req.PrixUnitaireCfa == nil {
			req.PrixUnitaireCfa = produit.PrixVenteUnitaireCfa
		}
	}

	// Fill the CFA side from EUR with the rate in effect, and keep the rate
	// so the report never re-values this row with a later rate.
	if req.PrixUnitaireCfa == nil && req.PrixUnitaireEuro != nil && req.TauxChange == nil {
		if taux, err := s.tauxRepo.CurrentForEnvoi(produit.EnvoiID); err == nil {
			cfa := req.PrixUnitaireEuro.Mul(taux.TauxEuroCfa).Round(2)
			req.PrixUnitaireCfa = &cfa
			rate := taux.TauxEuroCfa
			req.TauxChange = &rate
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	if req.Type == model.TxVente && req.PrixUnitaireCfa == nil {
		return ErrMissingPrice
	}
	return nil
}

func (s *stockService) CreateDette(req *model.Dette, actor string) (*model.Dette, error) {
	if err := firstValidationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if req.DatePret.IsZero() {
		req.DatePret = time.Now()
	}
	if req.DateRetourEffective != nil {
		return nil, validationErrorf("a debt cannot be created already settled")
	}

	s.locks.Lock(req.ProduitID)
	defer s.locks.Unlock(req.ProduitID)

	var stock *model.Stock
	var produit *model.Produit
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		produit, err = lockProduit(tx, req.ProduitID)
		if err != nil {
			return err
		}

		// Price resolution: payload, else the product's default sale price.
		if req.PrixUnitaireCfa == nil {
			req.PrixUnitaireCfa = produit.PrixVenteUnitaireCfa
		}
		if req.PrixUnitaireCfa == nil {
			return ErrMissingPrice
		}

		restante, err := s.restanteOf(tx, produit.ID)
		if err != nil {
			return err
		}
		if restante < req.QuantitePretee {
			return &InsufficientStockError{ProduitNom: produit.Nom, Requested: req.QuantitePretee, Available: restante}
		}

		req.CreatedBy = actor
		req.UpdatedBy = actor
		if err := tx.Create(req).Error; err != nil {
			return err
		}

		stock, err = s.recomputeStock(tx, produit)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &produit.EnvoiID, model.AuditCreate, "dette", req.ID.String(),
		fmt.Sprintf("pret de %d x %s a %s", req.QuantitePretee, produit.Nom, req.Client),
		map[string]interface{}{"produit_id": produit.ID, "quantite_restante": stock.QuantiteRestante})
	return req, nil
}

func (s *stockService) UpdateDette(id uuid.UUID, req *DetteUpdate, actor string) (*model.Dette, error) {
	dette, err := s.detteRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.locks.Lock(dette.ProduitID)
	defer s.locks.Unlock(dette.ProduitID)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(dette, "id = ?", id).Error; err != nil {
			return err
		}
		if req.Client != nil {
			if *req.Client == "" {
				return validationErrorf("client cannot be empty")
			}
			dette.Client = *req.Client
		}
		if req.PrixUnitaireCfa != nil {
			if dette.Settled() {
				return validationErrorf("cannot change the price of a settled debt")
			}
			dette.PrixUnitaireCfa = req.PrixUnitaireCfa
		}
		if req.DateRetourPrevue != nil {
			dette.DateRetourPrevue = req.DateRetourPrevue
		}
		dette.UpdatedBy = actor
		return tx.Save(dette).Error
	})
	if err != nil {
		return nil, err
	}

	envoiID := s.envoiOf(dette.ProduitID)
	s.auditSvc.Record(actor, envoiID, model.AuditUpdate, "dette", dette.ID.String(),
		fmt.Sprintf("modification dette de %s", dette.Client), nil)
	return dette, nil
}

// SettleDette marks a debt as repaid. The quantity already left the stock
// at creation, so settling only reclassifies it from loaned to sold.
// Settling an already-settled debt is idempotent.
func (s *stockService) SettleDette(id uuid.UUID, dateRetour time.Time, actor string) (*model.Dette, error) {
	dette, err := s.detteRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if dateRetour.IsZero() {
		dateRetour = time.Now()
	}

	s.locks.Lock(dette.ProduitID)
	defer s.locks.Unlock(dette.ProduitID)

	var produit *model.Produit
	err = s.db.Transaction(func(tx *gorm.DB) error {
		produit, err = lockProduit(tx, dette.ProduitID)
		if err != nil {
			return err
		}
		if err := tx.First(dette, "id = ?", id).Error; err != nil {
			return err
		}

		// A settled debt is a sale; it needs a price to be valued.
		if dette.PrixUnitaireCfa == nil {
			if produit.PrixVenteUnitaireCfa == nil {
				return ErrMissingPrice
			}
			dette.PrixUnitaireCfa = produit.PrixVenteUnitaireCfa
		}

		dette.DateRetourEffective = &dateRetour
		dette.UpdatedBy = actor
		if err := tx.Save(dette).Error; err != nil {
			return err
		}

		_, err = s.recomputeStock(tx, produit)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &produit.EnvoiID, model.AuditUpdate, "dette", dette.ID.String(),
		fmt.Sprintf("dette soldee: %d x %s par %s", dette.QuantitePretee, produit.Nom, dette.Client), nil)
	return dette, nil
}

// ReopenDette reverts a settlement, moving the quantity back from sold to
// loaned. Physical stock is untouched either way.
func (s *stockService) ReopenDette(id uuid.UUID, actor string) (*model.Dette, error) {
	dette, err := s.detteRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.locks.Lock(dette.ProduitID)
	defer s.locks.Unlock(dette.ProduitID)

	var produit *model.Produit
	err = s.db.Transaction(func(tx *gorm.DB) error {
		produit, err = lockProduit(tx, dette.ProduitID)
		if err != nil {
			return err
		}
		if err := tx.First(dette, "id = ?", id).Error; err != nil {
			return err
		}
		if !dette.Settled() {
			return nil
		}
		dette.DateRetourEffective = nil
		dette.UpdatedBy = actor
		if err := tx.Save(dette).Error; err != nil {
			return err
		}
		_, err = s.recomputeStock(tx, produit)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &produit.EnvoiID, model.AuditUpdate, "dette", dette.ID.String(),
		fmt.Sprintf("dette rouverte: %d x %s par %s", dette.QuantitePretee, produit.Nom, dette.Client), nil)
	return dette, nil
}

func (s *stockService) DeleteDette(id uuid.UUID, actor string) error {
	dette, err := s.detteRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	s.locks.Lock(dette.ProduitID)
	defer s.locks.Unlock(dette.ProduitID)

	var produit *model.Produit
	err = s.db.Transaction(func(tx *gorm.DB) error {
		produit, err = lockProduit(tx, dette.ProduitID)
		if err != nil {
			return err
		}
		if err := tx.Delete(&model.Dette{}, "id = ?", id).Error; err != nil {
			return err
		}
		_, err = s.recomputeStock(tx, produit)
		return err
	})
	if err != nil {
		return err
	}

	s.auditSvc.Record(actor, &produit.EnvoiID, model.AuditDelete, "dette", id.String(),
		fmt.Sprintf("suppression dette de %s (%d x %s)", dette.Client, dette.QuantitePretee, produit.Nom), nil)
	return nil
}

func (s *stockService) GetStock(produitID uuid.UUID) (*model.Stock, error) {
	stock, err := s.stockRepo.FindByProduit(produitID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return stock, err
}

func (s *stockService) StocksByEnvoi(envoiID uuid.UUID) ([]model.Stock, error) {
	return s.stockRepo.FindByEnvoi(envoiID)
}

func (s *stockService) envoiOf(produitID uuid.UUID) *uuid.UUID {
	produit, err := s.produitRepo.FindByID(produitID)
	if err != nil {
		return nil
	}
	return &produit.EnvoiID
}
