package models

import "time"

// Student represents a learner identity. The engine reads identity fields and
// owns only the rows it touches: entitlements, codes and attempts.
type Student struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	FullName      string    `gorm:"size:255;not null" json:"full_name"`
	Phone         string    `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	Email         string    `gorm:"size:255" json:"email,omitempty"`
	PasswordHash  string    `gorm:"size:255;not null" json:"-"`
	Grade         string    `gorm:"size:64" json:"grade"`
	GuardianPhone string    `gorm:"size:32" json:"guardian_phone"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
