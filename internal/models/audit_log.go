package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is a best-effort record of a staff or student action. Failures to
// write audit rows never roll back the triggering operation.
type AuditLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	ActorID    *uint             `json:"actor_id,omitempty"`
	Action     string            `gorm:"size:128;index;not null" json:"action"`
	TargetType string            `gorm:"size:64" json:"target_type"`
	TargetID   *uint             `json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `gorm:"index" json:"created_at"`
}
