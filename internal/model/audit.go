package model

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditLogin  AuditAction = "login"
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
	AuditPurge  AuditAction = "purge"
)

// AuditEvent is the append-only trail of who mutated what. The integer key
// doubles as the pagination cursor (after_id).
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Username string      `gorm:"type:varchar(150)" json:"username"`
	EnvoiID  *uuid.UUID  `gorm:"type:uuid;index" json:"envoi_id,omitempty"`
	Action   AuditAction `gorm:"type:varchar(20);not null" json:"action"`
	Entity   string      `gorm:"type:varchar(50)" json:"entity"`
	ObjectID string      `gorm:"type:varchar(64)" json:"object_id"`
	Message  string      `gorm:"type:text" json:"message"`
	Metadata string      `gorm:"type:text" json:"metadata,omitempty"` // JSON blob
}
