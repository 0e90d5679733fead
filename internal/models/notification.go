package models

import "time"

// Notification is a learner-visible message, written best-effort by engine
// operations and by staff broadcasts.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StudentID uint       `gorm:"index;not null" json:"student_id"`
	Message   string     `gorm:"size:512;not null" json:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
