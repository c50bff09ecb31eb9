package repository

import (
	"time"

	"go-envoi-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	FindByEnvoi(envoiID uuid.UUID, typeTx string, from, to *time.Time) ([]model.Transaction, error)
	FindByID(id uuid.UUID) (*model.Transaction, error)
	SumQuantiteForUpdate(tx *gorm.DB, produitID uuid.UUID, typeTx model.TypeTransaction) (int, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) FindByEnvoi(envoiID uuid.UUID, typeTx string, from, to *time.Time) ([]model.Transaction, error) {
	var transactions []model.Transaction
	q := r.db.Preload("Produit").
		Joins("JOIN produits ON produits.id = transactions.produit_id").
		Where("produits.envoi_id = ?", envoiID)
	if typeTx != "" {
		q = q.Where("transactions.type = ?", typeTx)
	}
	if from != nil {
		q = q.Where("transactions.date_transaction >= ?", *from)
	}
	if to != nil {
		q = q.Where("transactions.date_transaction <= ?", *to)
	}
	err := q.Order("transactions.date_transaction DESC, transactions.created_at DESC").Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) FindByID(id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	err := r.db.Preload("Produit").First(&transaction, "id = ?", id).Error
	return &transaction, err
}

// SumQuantiteForUpdate aggregates inside the caller's transaction so the
// stock recompute reads the same snapshot it writes against.
func (r *transactionRepo) SumQuantiteForUpdate(tx *gorm.DB, produitID uuid.UUID, typeTx model.TypeTransaction) (int, error) {
	var total int64
	err := tx.Model(&model.Transaction{}).
		Where("produit_id = ? AND type = ?", produitID, typeTx).
		Select("COALESCE(SUM(quantite), 0)").
		Scan(&total).Error
	return int(total), err
}
