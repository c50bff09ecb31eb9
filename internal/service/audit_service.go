package service

import (
	"encoding/json"
	"log"

	"go-envoi-inventory/internal/model"
	"go-envoi-inventory/internal/repository"
	"go-envoi-inventory/internal/ws"

	"github.com/google/uuid"
)

// AuditService appends to the audit trail and mirrors every event onto the
// websocket feed. Recording never fails the calling mutation: a lost audit
// row is logged, not propagated.
type AuditService interface {
	Record(username string, envoiID *uuid.UUID, action model.AuditAction, entity, objectID, message string, metadata map[string]interface{})
	List(envoiID *uuid.UUID, afterID uint, limit int) ([]model.AuditEvent, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
	wsHub     *ws.Hub
}

func NewAuditService(auditRepo repository.AuditRepository, hub *ws.Hub) AuditService {
	return &auditService{auditRepo: auditRepo, wsHub: hub}
}

func (s *auditService) Record(username string, envoiID *uuid.UUID, action model.AuditAction, entity, objectID, message string, metadata map[string]interface{}) {
	event := &model.AuditEvent{
		Username: username,
		EnvoiID:  envoiID,
		Action:   action,
		Entity:   entity,
		ObjectID: objectID,
		Message:  message,
	}
	if metadata != nil {
		if raw, err := json.Marshal(metadata); err == nil {
			event.Metadata = string(raw)
		}
	}
	if err := s.auditRepo.Create(event); err != nil {
		log.Println("audit: failed to record event:", err)
		return
	}

	if s.wsHub != nil {
		go func() {
			payload := map[string]interface{}{
				"type":  "audit_event",
				"event": event,
			}
			msg, _ := json.Marshal(payload)
			s.wsHub.Broadcast <- msg
		}()
	}
}

func (s *auditService) List(envoiID *uuid.UUID, afterID uint, limit int) ([]model.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.auditRepo.List(envoiID, afterID, limit)
}
