package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of a planning mutation.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrgID      uuid.UUID      `gorm:"column:org_id;type:uuid;not null;index:idx_audit_entity,priority:1" json:"org_id"`
	UserID     *uuid.UUID     `gorm:"column:user_id;type:uuid" json:"userId"`
	Action     string         `gorm:"column:action;type:varchar(40);not null" json:"action"`
	EntityType string         `gorm:"column:entity_type;type:varchar(40);not null;index:idx_audit_entity,priority:2" json:"entityType"`
	EntityID   string         `gorm:"column:entity_id;type:varchar(64);not null;index:idx_audit_entity,priority:3" json:"entityId"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (AuditLog) TableName() string {
	return "AuditLogs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
