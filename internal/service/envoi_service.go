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

type EnvoiService interface {
	Create(req *model.Envoi, actor string) (*model.Envoi, error)
	Update(id uuid.UUID, req *model.Envoi, actor string) (*model.Envoi, error)
	Delete(id uuid.UUID, actor string) error
	// Purge empties the envoi (products and their logs) but keeps the envoi
	// row and its exchange-rate history.
	Purge(id uuid.UUID, actor string) error
	FindAll(includeArchived bool) ([]model.Envoi, error)
	FindByID(id uuid.UUID) (*model.Envoi, error)
}

type envoiService struct {
	envoiRepo repository.EnvoiRepository
	auditSvc  AuditService
	db        *gorm.DB
}

func NewEnvoiService(envoiRepo repository.EnvoiRepository, auditSvc AuditService, db *gorm.DB) EnvoiService {
	return &envoiService{envoiRepo: envoiRepo, auditSvc: auditSvc, db: db}
}

func (s *envoiService) Create(req *model.Envoi, actor string) (*model.Envoi, error) {
	if err := firstValidationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if req.DateFin != nil && req.DateFin.Before(req.DateDebut) {
		return nil, validationErrorf("date_fin cannot be before date_debut")
	}
	if existing, err := s.envoiRepo.FindByNom(req.Nom); err == nil && existing.ID != uuid.Nil {
		return nil, validationErrorf("an envoi named %q already exists", req.Nom)
	}

	req.CreatedBy = actor
	req.UpdatedBy = actor
	if err := s.envoiRepo.Create(req); err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &req.ID, model.AuditCreate, "envoi", req.ID.String(),
		fmt.Sprintf("creation envoi %s", req.Nom), nil)
	return req, nil
}

func (s *envoiService) Update(id uuid.UUID, req *model.Envoi, actor string) (*model.Envoi, error) {
	existing, err := s.envoiRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Nom == "" {
		return nil, validationErrorf("envoi name is required")
	}
	if req.DateFin != nil && req.DateFin.Before(req.DateDebut) {
		return nil, validationErrorf("date_fin cannot be before date_debut")
	}

	existing.Nom = req.Nom
	existing.DateDebut = req.DateDebut
	existing.DateFin = req.DateFin
	existing.Notes = req.Notes
	existing.IsArchived = req.IsArchived
	existing.UpdatedBy = actor
	if err := s.envoiRepo.Update(existing); err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &existing.ID, model.AuditUpdate, "envoi", existing.ID.String(),
		fmt.Sprintf("modification envoi %s", existing.Nom), nil)
	return existing, nil
}

// Delete removes the envoi and everything it owns, children first: every
// product's dettes/transactions/stock, the products, the rate history, the
// envoi row.
func (s *envoiService) Delete(id uuid.UUID, actor string) error {
	existing, err := s.envoiRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := deleteEnvoiProduits(tx, id); err != nil {
			return err
		}
		if err := tx.Delete(&model.TauxChange{}, "envoi_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Envoi{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	s.auditSvc.Record(actor, nil, model.AuditDelete, "envoi", id.String(),
		fmt.Sprintf("suppression envoi %s", existing.Nom), nil)
	return nil
}

func (s *envoiService) Purge(id uuid.UUID, actor string) error {
	existing, err := s.envoiRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return deleteEnvoiProduits(tx, id)
	})
	if err != nil {
		return err
	}

	s.auditSvc.Record(actor, &id, model.AuditPurge, "envoi", id.String(),
		fmt.Sprintf("purge envoi %s", existing.Nom), nil)
	return nil
}

func deleteEnvoiProduits(tx *gorm.DB, envoiID uuid.UUID) error {
	var produitIDs []uuid.UUID
	if err := tx.Model(&model.Produit{}).Where("envoi_id = ?", envoiID).Pluck("id", &produitIDs).Error; err != nil {
		return err
	}
	for _, pid := range produitIDs {
		if err := deleteProduitCascade(tx, pid); err != nil {
			return err
		}
	}
	return nil
}

func (s *envoiService) FindAll(includeArchived bool) ([]model.Envoi, error) {
	return s.envoiRepo.FindAll(includeArchived)
}

func (s *envoiService) FindByID(id uuid.UUID) (*model.Envoi, error) {
	envoi, err := s.envoiRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return envoi, err
}
