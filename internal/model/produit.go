package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Produit is a purchasable item of an envoi. Purchase price is tracked in
// EUR and sale price in CFA; the missing side is derived for display with
// the envoi's current exchange rate, never persisted.
type Produit struct {
	BaseModel
	EnvoiID uuid.UUID `gorm:"type:uuid;not null;index" json:"envoi_id" validate:"uuid_required"`
	Envoi   *Envoi    `gorm:"foreignKey:EnvoiID" json:"envoi,omitempty" validate:"-"`

	// Nom is unique per envoi in practice (import merges rely on it) but not
	// enforced by the schema, matching the merge-on-import workflow.
	Nom              string `gorm:"type:varchar(200);not null;index" json:"nom" validate:"required"`
	Caracteristiques string `gorm:"type:text" json:"caracteristiques"`
	Categorie        string `gorm:"type:varchar(100)" json:"categorie"`

	PrixAchatUnitaireEuro *decimal.Decimal `gorm:"type:numeric(10,2)" json:"prix_achat_unitaire_euro"`
	PrixVenteUnitaireCfa  *decimal.Decimal `gorm:"type:numeric(10,2)" json:"prix_vente_unitaire_cfa"`

	ImageURL string `gorm:"type:varchar(500)" json:"image_url"`

	Stock *Stock `gorm:"foreignKey:ProduitID" json:"stock,omitempty" validate:"-"`
}
