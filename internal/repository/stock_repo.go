package repository

import (
	"go-envoi-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StockRepository interface {
	FindByProduit(produitID uuid.UUID) (*model.Stock, error)
	FindByEnvoi(envoiID uuid.UUID) ([]model.Stock, error)
	// Save runs in the caller's transaction so the counter update commits
	// atomically with the event that caused it.
	Save(tx *gorm.DB, stock *model.Stock) error
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) FindByProduit(produitID uuid.UUID) (*model.Stock, error) {
	var stock model.Stock
	err := r.db.First(&stock, "produit_id = ?", produitID).Error
	return &stock, err
}

func (r *stockRepo) FindByEnvoi(envoiID uuid.UUID) ([]model.Stock, error) {
	var stocks []model.Stock
	err := r.db.
		Joins("JOIN produits ON produits.id = stocks.produit_id").
		Where("produits.envoi_id = ?", envoiID).
		Find(&stocks).Error
	return stocks, err
}

func (r *stockRepo) Save(tx *gorm.DB, stock *model.Stock) error {
	return tx.Save(stock).Error
}
