package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatutDette is derived from the dates, never stored.
type StatutDette string

const (
	DetteEnCours StatutDette = "en_cours"
	DetteRetard  StatutDette = "retard"
	DetteSoldee  StatutDette = "soldee"
)

// Dette is a credit sale: the quantity leaves the stock at creation and is
// reclassified from "on loan" to "sold" when the debt is settled
// (DateRetourEffective set). The settlement never touches physical stock a
// second time.
type Dette struct {
	BaseModel
	ProduitID uuid.UUID `gorm:"type:uuid;not null;index" json:"produit_id" validate:"uuid_required"`
	Produit   *Produit  `gorm:"foreignKey:ProduitID" json:"produit,omitempty" validate:"-"`

	Client         string `gorm:"type:varchar(200);not null" json:"client" validate:"required"`
	QuantitePretee int    `gorm:"not null" json:"quantite_pretee" validate:"required,gt=0"`

	// Resolved at creation (payload, else the product's default sale price);
	// a debt can only be settled once this is set.
	PrixUnitaireCfa *decimal.Decimal `gorm:"type:numeric(10,2)" json:"prix_unitaire_cfa"`

	DatePret            time.Time  `gorm:"type:date;not null" json:"date_pret"`
	DateRetourPrevue    *time.Time `gorm:"type:date" json:"date_retour_prevue,omitempty"`
	DateRetourEffective *time.Time `gorm:"type:date" json:"date_retour_effective,omitempty"`
}

func (d *Dette) Settled() bool { return d.DateRetourEffective != nil }

// Statut derives the debt state as of the given day (midnight, local).
func (d *Dette) Statut(today time.Time) StatutDette {
	if d.DateRetourEffective != nil {
		return DetteSoldee
	}
	if d.DateRetourPrevue != nil && d.DateRetourPrevue.Before(today) {
		return DetteRetard
	}
	return DetteEnCours
}
