package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditAction string

const (
	AuditActionCreate AuditAction = "create"
	AuditActionUpdate AuditAction = "update"
	AuditActionDelete AuditAction = "delete"
	AuditActionUndo   AuditAction = "undo"
)

type AuditLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	UserID   uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	UserName string    `gorm:"size:100" json:"user_name"`

	// EntityType is a branch tag for service records, otherwise e.g. "expense".
	EntityType string `gorm:"size:50;index" json:"entity_type"`
	EntityID   string `gorm:"size:64;index" json:"entity_id"`

	Action      AuditAction `gorm:"size:20" json:"action"`
	Description string      `gorm:"size:255" json:"description"`

	BeforeData datatypes.JSON `json:"before_data"`
	AfterData  datatypes.JSON `json:"after_data"`

	IsUndone bool       `gorm:"default:false" json:"is_undone"`
	UndoneBy *uuid.UUID `gorm:"type:uuid" json:"undone_by"`
	UndoneAt *time.Time `json:"undone_at"`
}
