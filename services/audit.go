package services

import (
	"encoding/json"
	"time"

	"setup-workflow-api/models"

	"gorm.io/gorm"
)

// Actor identifies who triggered an operation, with the request metadata the
// audit trail records.
type Actor struct {
	UserID    int
	Role      string
	IP        string
	UserAgent string
}

func writeAudit(tx *gorm.DB, actor Actor, action, entityType string, entityID int, values map[string]interface{}, description string) error {
	serialized, _ := json.Marshal(values)
	payload := string(serialized)

	audit := models.AuditLog{
		UserID:     actor.UserID,
		Action:     action,
		EntityType: entityType,
		EntityID:   &entityID,
		NewValues:  &payload,
		IPAddress:  actor.IP,
		CreatedAt:  time.Now(),
	}
	if description != "" {
		audit.Description = &description
	}
	if actor.UserAgent != "" {
		ua := actor.UserAgent
		audit.UserAgent = &ua
	}
	return tx.Create(&audit).Error
}

func strPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
