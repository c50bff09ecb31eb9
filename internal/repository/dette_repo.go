package repository

import (
	"go-envoi-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DetteRepository interface {
	FindByEnvoi(envoiID uuid.UUID, client string) ([]model.Dette, error)
	FindByID(id uuid.UUID) (*model.Dette, error)
	SumPreteeForUpdate(tx *gorm.DB, produitID uuid.UUID) (int, error)
	SumSoldeeForUpdate(tx *gorm.DB, produitID uuid.UUID) (int, error)
}

type detteRepo struct {
	db *gorm.DB
}

func NewDetteRepo(db *gorm.DB) DetteRepository {
	return &detteRepo{db}
}

func (r *detteRepo) FindByEnvoi(envoiID uuid.UUID, client string) ([]model.Dette, error) {
	var dettes []model.Dette
	q := r.db.Preload("Produit").
		Joins("JOIN produits ON produits.id = dettes.produit_id").
		Where("produits.envoi_id = ?", envoiID)
	if client != "" {
		q = q.Where("dettes.client = ?", client)
	}
	err := q.Order("dettes.date_pret DESC, dettes.created_at DESC").Find(&dettes).Error
	return dettes, err
}

func (r *detteRepo) FindByID(id uuid.UUID) (*model.Dette, error) {
	var dette model.Dette
	err := r.db.Preload("Produit").First(&dette, "id = ?", id).Error
	return &dette, err
}

// SumPreteeForUpdate totals every debt quantity (open and settled) for the
// product: settled debts stay out of the physical stock forever.
func (r *detteRepo) SumPreteeForUpdate(tx *gorm.DB, produitID uuid.UUID) (int, error) {
	var total int64
	err := tx.Model(&model.Dette{}).
		Where("produit_id = ?", produitID).
		Select("COALESCE(SUM(quantite_pretee), 0)").
		Scan(&total).Error
	return int(total), err
}

// SumSoldeeForUpdate totals only the settled debts, counted as sold.
func (r *detteRepo) SumSoldeeForUpdate(tx *gorm.DB, produitID uuid.UUID) (int, error) {
	var total int64
	err := tx.Model(&model.Dette{}).
		Where("produit_id = ? AND date_retour_effective IS NOT NULL", produitID).
		Select("COALESCE(SUM(quantite_pretee), 0)").
		Scan(&total).Error
	return int(total), err
}
