package repository

import (
	"go-envoi-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TauxRepository interface {
	Create(taux *model.TauxChange) error
	FindByEnvoi(envoiID uuid.UUID) ([]model.TauxChange, error)
	FindByID(id uuid.UUID) (*model.TauxChange, error)
	// CurrentForEnvoi returns the rate in effect, or gorm.ErrRecordNotFound
	// when the envoi has no rate at all.
	CurrentForEnvoi(envoiID uuid.UUID) (*model.TauxChange, error)
	Delete(id uuid.UUID) error
}

type tauxRepo struct {
	db *gorm.DB
}

func NewTauxRepo(db *gorm.DB) TauxRepository {
	return &tauxRepo{db}
}

func (r *tauxRepo) Create(taux *model.TauxChange) error {
	return r.db.Create(taux).Error
}

func (r *tauxRepo) FindByEnvoi(envoiID uuid.UUID) ([]model.TauxChange, error) {
	var rates []model.TauxChange
	err := r.db.Where("envoi_id = ?", envoiID).
		Order("date_application DESC, created_at DESC").
		Find(&rates).Error
	return rates, err
}

func (r *tauxRepo) FindByID(id uuid.UUID) (*model.TauxChange, error) {
	var taux model.TauxChange
	err := r.db.First(&taux, "id = ?", id).Error
	return &taux, err
}

func (r *tauxRepo) CurrentForEnvoi(envoiID uuid.UUID) (*model.TauxChange, error) {
	var taux model.TauxChange
	err := r.db.Where("envoi_id = ?", envoiID).
		Order("date_application DESC, created_at DESC").
		First(&taux).Error
	return &taux, err
}

func (r *tauxRepo) Delete(id uuid.UUID) error {
	return r.db.Delete(&model.TauxChange{}, "id = ?", id).Error
}
