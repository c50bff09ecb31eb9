package repository

import (
	"go-envoi-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EnvoiRepository interface {
	Create(envoi *model.Envoi) error
	FindAll(includeArchived bool) ([]model.Envoi, error)
	FindByID(id uuid.UUID) (*model.Envoi, error)
	FindByNom(nom string) (*model.Envoi, error)
	Update(envoi *model.Envoi) error
}

type envoiRepo struct {
	db *gorm.DB
}

func NewEnvoiRepo(db *gorm.DB) EnvoiRepository {
	return &envoiRepo{db}
}

func (r *envoiRepo) Create(envoi *model.Envoi) error {
	return r.db.Create(envoi).Error
}

func (r *envoiRepo) FindAll(includeArchived bool) ([]model.Envoi, error) {
	var envois []model.Envoi
	q := r.db.Order("date_debut DESC, created_at DESC")
	if !includeArchived {
		q = q.Where("is_archived = ?", false)
	}
	err := q.Find(&envois).Error
	return envois, err
}

func (r *envoiRepo) FindByID(id uuid.UUID) (*model.Envoi, error) {
	var envoi model.Envoi
	err := r.db.First(&envoi, "id = ?", id).Error
	return &envoi, err
}

func (r *envoiRepo) FindByNom(nom string) (*model.Envoi, error) {
	var envoi model.Envoi
	err := r.db.First(&envoi, "nom = ?", nom).Error
	return &envoi, err
}

func (r *envoiRepo) Update(envoi *model.Envoi) error {
	return r.db.Save(envoi).Error
}
