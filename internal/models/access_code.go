package models

import "time"

// AccessCode is a short-lived, single-use numeric credential substituting for
// a password on one login. At most one unused, unexpired code exists per
// student; issuing a new one displaces any prior unused code.
type AccessCode struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StudentID uint       `gorm:"index;not null" json:"student_id"`
	Code      string     `gorm:"size:16;not null" json:"code"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Active reports whether the code can still be redeemed at the given time.
func (c AccessCode) Active(reference time.Time) bool {
	return c.UsedAt == nil && c.ExpiresAt.After(reference)
}
