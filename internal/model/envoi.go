package model

import "time"

// Envoi is the partition boundary of the whole system: every product,
// transaction, debt and exchange rate belongs to exactly one envoi
// (shipment). Deleting an envoi cascades to everything it owns.
type Envoi struct {
	BaseModel
	Nom        string     `gorm:"type:varchar(200);uniqueIndex;not null" json:"nom" validate:"required"`
	DateDebut  time.Time  `gorm:"type:date;not null" json:"date_debut"`
	DateFin    *time.Time `gorm:"type:date" json:"date_fin,omitempty"`
	Notes      string     `gorm:"type:text" json:"notes"`
	IsArchived bool       `gorm:"default:false" json:"is_archived"`
}
