package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TypeTransaction is a closed enum: achats add to stock, ventes draw from
// it. There are no other stock-affecting transaction kinds; credit sales
// live in Dette.
type TypeTransaction string

const (
	TxAchat TypeTransaction = "achat"
	TxVente TypeTransaction = "vente"
)

// Transaction is one purchase or sale event. Rows are append-style: they
// are never edited in place, only created and deleted (a delete reverses
// the stock effect).
type Transaction struct {
	BaseModel
	ProduitID uuid.UUID `gorm:"type:uuid;not null;index" json:"produit_id" validate:"uuid_required"`
	Produit   *Produit  `gorm:"foreignKey:ProduitID" json:"produit,omitempty" validate:"-"`

	Type     TypeTransaction `gorm:"type:varchar(10);not null" json:"type_transaction" validate:"required,oneof=achat vente"`
	Quantite int             `gorm:"not null" json:"quantite" validate:"required,gt=0"`

	// Prices are snapshots taken at record time. When only the EUR side is
	// supplied, the CFA side is filled with the rate in effect and that rate
	// is kept in TauxChange so reports never re-value history.
	PrixUnitaireEuro *decimal.Decimal `gorm:"type:numeric(10,2)" json:"prix_unitaire_euro"`
	PrixUnitaireCfa  *decimal.Decimal `gorm:"type:numeric(10,2)" json:"prix_unitaire_cfa"`
	TauxChange       *decimal.Decimal `gorm:"type:numeric(10,2)" json:"taux_change"`

	DateTransaction   time.Time `gorm:"not null;index" json:"date_transaction"`
	ClientFournisseur string    `gorm:"type:varchar(200)" json:"client_fournisseur"`
	Notes             string    `gorm:"type:text" json:"notes"`
}

// TotalEuro returns quantity x recorded EUR unit price, nil when no EUR
// price was recorded.
func (t *Transaction) TotalEuro() *decimal.Decimal {
	if t.PrixUnitaireEuro == nil {
		return nil
	}
	v := t.PrixUnitaireEuro.Mul(decimal.NewFromInt(int64(t.Quantite)))
	return &v
}

// TotalCfa returns quantity x recorded CFA unit price, nil when no CFA
// price was recorded.
func (t *Transaction) TotalCfa() *decimal.Decimal {
	if t.PrixUnitaireCfa == nil {
		return nil
	}
	v := t.PrixUnitaireCfa.Mul(decimal.NewFromInt(int64(t.Quantite)))
	return &v
}
