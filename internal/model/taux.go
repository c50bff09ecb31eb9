package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TauxChange is one dated EUR->CFA rate record for an envoi. The ledger is
// append-style; the "current" rate is the record with the latest
// DateApplication (ties broken by creation order), future-dated included.
type TauxChange struct {
	BaseModel
	EnvoiID uuid.UUID `gorm:"type:uuid;not null;index" json:"envoi_id" validate:"uuid_required"`

	TauxEuroCfa     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"taux_euro_cfa" validate:"required"`
	DateApplication time.Time       `gorm:"type:date;not null" json:"date_application"`
}
