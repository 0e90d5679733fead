package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Supervisor is a staff principal holding an explicit capability set.
// Supervisors are created and edited only by the owner.
type Supervisor struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	FullName     string         `gorm:"size:255;not null" json:"full_name"`
	Phone        string         `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	PasswordHash string         `gorm:"size:255;not null" json:"-"`
	Capabilities datatypes.JSON `gorm:"type:json" json:"capabilities"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CapabilitySet decodes the persisted capability strings into a resolved set.
// Malformed or unknown entries resolve to an empty/partial set rather than an
// error so a bad row can never widen access.
func (s Supervisor) CapabilitySet() CapabilitySet {
	var values []string
	if len(s.Capabilities) > 0 {
		if err := json.Unmarshal(s.Capabilities, &values); err != nil {
			values = nil
		}
	}
	return NewCapabilitySet(values)
}
