package service

import (
	"errors"
	"fmt"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"
	"go-envoi-inventory/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProduitService interface {
	Create(req *model.Produit, quantiteInitiale int, actor string) (*model.Produit, error)
	Update(id uuid.UUID, req *model.Produit, actor string) (*model.Produit, error)
	Delete(id uuid.UUID, actor string) error
	FindByEnvoi(envoiID uuid.UUID, search, categorie string) ([]model.Produit, error)
	FindByID(id uuid.UUID) (*model.Produit, error)
	Categories(envoiID uuid.UUID) ([]string, error)
}

type produitService struct {
	produitRepo repository.ProduitRepository
	envoiRepo   repository.EnvoiRepository
	stockSvc    StockService
	auditSvc    AuditService
	db          *gorm.DB
}

func NewProduitService(
	produitRepo repository.ProduitRepository,
	envoiRepo repository.EnvoiRepository,
	stockSvc StockService,
	auditSvc AuditService,
	db *gorm.DB,
) ProduitService {
	return &produitService{
		produitRepo: produitRepo,
		envoiRepo:   envoiRepo,
		stockSvc:    stockSvc,
		auditSvc:    auditSvc,
		db:          db,
	}
}

// Create registers the product with an empty stock row, then feeds the
// opening quantity through the stock engine as a regular achat so the logs
// stay the single source of truth.
func (s *produitService) Create(req *model.Produit, quantiteInitiale int, actor string) (*model.Produit, error) {
	if err := firstValidationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if quantiteInitiale < 0 {
		return nil, validationErrorf("initial quantity cannot be negative")
	}
	if _, err := s.envoiRepo.FindByID(req.EnvoiID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	req.CreatedBy = actor
	req.UpdatedBy = actor
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(req).Error; err != nil {
			return err
		}
		stock := &model.Stock{ProduitID: req.ID}
		stock.CreatedBy = actor
		stock.UpdatedBy = actor
		return tx.Create(stock).Error
	})
	if err != nil {
		return nil, err
	}

	if quantiteInitiale > 0 {
		achat := &model.Transaction{
			ProduitID:        req.ID,
			Type:             model.TxAchat,
			Quantite:         quantiteInitiale,
			PrixUnitaireEuro: req.PrixAchatUnitaireEuro,
		}
		if _, err := s.stockSvc.CreateTransaction(achat, actor); err != nil {
			return nil, err
		}
	}

	s.auditSvc.Record(actor, &req.EnvoiID, model.AuditCreate, "produit", req.ID.String(),
		fmt.Sprintf("creation produit %s", req.Nom), nil)
	return s.produitRepo.FindByID(req.ID)
}

func (s *produitService) Update(id uuid.UUID, req *model.Produit, actor string) (*model.Produit, error) {
	existing, err := s.produitRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Nom == "" {
		return nil, validationErrorf("product name is required")
	}

	existing.Nom = req.Nom
	existing.Caracteristiques = req.Caracteristiques
	existing.Categorie = req.Categorie
	existing.PrixAchatUnitaireEuro = req.PrixAchatUnitaireEuro
	existing.PrixVenteUnitaireCfa = req.PrixVenteUnitaireCfa
	existing.ImageURL = req.ImageURL
	existing.UpdatedBy = actor
	if err := s.produitRepo.Update(existing); err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &existing.EnvoiID, model.AuditUpdate, "produit", existing.ID.String(),
		fmt.Sprintf("modification produit %s", existing.Nom), nil)
	return existing, nil
}

// Delete removes the product and everything hanging off it, children first
// so no orphan row survives a partial failure.
func (s *produitService) Delete(id uuid.UUID, actor string) error {
	existing, err := s.produitRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return deleteProduitCascade(tx, id)
	})
	if err != nil {
		return err
	}

	s.auditSvc.Record(actor, &existing.EnvoiID, model.AuditDelete, "produit", id.String(),
		fmt.Sprintf("suppression produit %s", existing.Nom), nil)
	return nil
}

// deleteProduitCascade deletes one product's rows in dependency order:
// dettes, transactions, stock, then the product itself.
func deleteProduitCascade(tx *gorm.DB, produitID uuid.UUID) error {
	if err := tx.Delete(&model.Dette{}, "produit_id = ?", produitID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&model.Transaction{}, "produit_id = ?", produitID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&model.Stock{}, "produit_id = ?", produitID).Error; err != nil {
		return err
	}
	return tx.Delete(&model.Produit{}, "id = ?", produitID).Error
}

func (s *produitService) FindByEnvoi(envoiID uuid.UUID, search, categorie string) ([]model.Produit, error) {
	return s.produitRepo.FindByEnvoi(envoiID, search, categorie)
}

func (s *produitService) FindByID(id uuid.UUID) (*model.Produit, error) {
	produit, err := s.produitRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return produit, err
}

func (s *produitService) Categories(envoiID uuid.UUID) ([]string, error) {
	return s.produitRepo.Categories(envoiID)
}
