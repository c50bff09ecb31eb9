package repository

import (
	"go-envoi-inventory/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(event *model.AuditEvent) error
	// List pages forward from afterID (exclusive) in insertion order.
	List(envoiID *uuid.UUID, afterID uint, limit int) ([]model.AuditEvent, error)
}

type auditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) AuditRepository {
	return &auditRepo{db}
}

func (r *auditRepo) Create(event *model.AuditEvent) error {
	return r.db.Create(event).Error
}

func (r *auditRepo) List(envoiID *uuid.UUID, afterID uint, limit int) ([]model.AuditEvent, error) {
	var events []model.AuditEvent
	q := r.db.Where("id > ?", afterID).Order("id ASC")
	if envoiID != nil {
		q = q.Where("envoi_id = ?", *envoiID)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&events).Error
	return events, err
}
