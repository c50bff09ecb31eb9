package service

import (
	"errors"
	"fmt"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"
	"go-envoi-inventory/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TauxService interface {
	Create(req *model.TauxChange, actor string) (*model.TauxChange, error)
	Delete(id uuid.UUID, actor string) error
	FindByEnvoi(envoiID uuid.UUID) ([]model.TauxChange, error)
	// Current returns nil (no error) when the envoi has no rate yet; the
	// caller decides how the absence propagates.
	Current(envoiID uuid.UUID) (*model.TauxChange, error)
}

type tauxService struct {
	tauxRepo repository.TauxRepository
	auditSvc AuditService
}

func NewTauxService(tauxRepo repository.TauxRepository, auditSvc AuditService) TauxService {
	return &tauxService{tauxRepo: tauxRepo, auditSvc: auditSvc}
}

func (s *tauxService) Create(req *model.TauxChange, actor string) (*model.TauxChange, error) {
	if err := firstValidationError(validator.ValidateStruct(req)); err != nil {
		return nil, err
	}
	if !req.TauxEuroCfa.GreaterThan(decimal.Zero) {
		return nil, validationErrorf("exchange rate must be positive")
	}

	req.CreatedBy = actor
	req.UpdatedBy = actor
	if err := s.tauxRepo.Create(req); err != nil {
		return nil, err
	}

	s.auditSvc.Record(actor, &req.EnvoiID, model.AuditCreate, "taux", req.ID.String(),
		fmt.Sprintf("nouveau taux %s CFA/EUR", req.TauxEuroCfa.String()), nil)
	return req, nil
}

func (s *tauxService) Delete(id uuid.UUID, actor string) error {
	existing, err := s.tauxRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.tauxRepo.Delete(id); err != nil {
		return err
	}

	s.auditSvc.Record(actor, &existing.EnvoiID, model.AuditDelete, "taux", id.String(),
		fmt.Sprintf("suppression taux %s CFA/EUR", existing.TauxEuroCfa.String()), nil)
	return nil
}

func (s *tauxService) FindByEnvoi(envoiID uuid.UUID) ([]model.TauxChange, error) {
	return s.tauxRepo.FindByEnvoi(envoiID)
}

func (s *tauxService) Current(envoiID uuid.UUID) (*model.TauxChange, error) {
	taux, err := s.tauxRepo.CurrentForEnvoi(envoiID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return taux, nil
}
