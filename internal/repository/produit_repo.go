package repository

import (
	"strings"

	"go-envoi-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProduitRepository interface {
	Create(produit *model.Produit) error
	FindByEnvoi(envoiID uuid.UUID, search, categorie string) ([]model.Produit, error)
	FindByID(id uuid.UUID) (*model.Produit, error)
	Update(produit *model.Produit) error
	Categories(envoiID uuid.UUID) ([]string, error)
}

type produitRepo struct {
	db *gorm.DB
}

func NewProduitRepo(db *gorm.DB) ProduitRepository {
	return &produitRepo{db}
}

func (r *produitRepo) Create(produit *model.Produit) error {
	return r.db.Create(produit).Error
}

func (r *produitRepo) FindByEnvoi(envoiID uuid.UUID, search, categorie string) ([]model.Produit, error) {
	var produits []model.Produit
	q := r.db.Preload("Stock").Where("envoi_id = ?", envoiID)
	if search != "" {
		q = q.Where("LOWER(nom) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if categorie != "" {
		q = q.Where("categorie = ?", categorie)
	}
	err := q.Order("nom ASC").Find(&produits).Error
	return produits, err
}

func (r *produitRepo) FindByID(id uuid.UUID) (*model.Produit, error) {
	var produit model.Produit
	err := r.db.Preload("Stock").First(&produit, "id = ?", id).Error
	return &produit, err
}

func (r *produitRepo) Update(produit *model.Produit) error {
	return r.db.Save(produit).Error
}

func (r *produitRepo) Categories(envoiID uuid.UUID) ([]string, error) {
	var categories []string
	err := r.db.Model(&model.Produit{}).
		Where("envoi_id = ? AND categorie <> ''", envoiID).
		Distinct("categorie").
		Order("categorie ASC").
		Pluck("categorie", &categories).Error
	return categories, err
}
