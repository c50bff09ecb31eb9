package model

import "github.com/google/uuid"

// Stock carries the derived per-product counters (1:1 with Produit).
//
// Invariant: QuantiteRestante = QuantiteInitial - QuantiteVendue - QuantitePretee >= 0.
// The row is recomputed inside every mutating transaction touching the
// product's log; it is never edited by clients directly.
type Stock struct {
	BaseModel
	ProduitID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"produit_id"`

	QuantiteInitial  int `gorm:"not null;default:0" json:"quantite_initial"`
	QuantiteVendue   int `gorm:"not null;default:0" json:"quantite_vendue"`
	QuantitePretee   int `gorm:"not null;default:0" json:"quantite_pretee"`
	QuantiteRestante int `gorm:"not null;default:0" json:"quantite_restante"`
}
