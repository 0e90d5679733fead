package models

import "time"

// Payment request lifecycle states. There is no transition out of approved or
// expired.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusExpired  = "expired"
)

// PaymentRequest is a pending, time-boxed claim of intent to pay, identified
// by a human-relayable reference string and settled by manual staff approval.
type PaymentRequest struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	StudentID   uint        `gorm:"index;not null" json:"student_id"`
	Kind        ContentKind `gorm:"size:16;not null" json:"kind"`
	TargetID    uint        `gorm:"not null" json:"target_id"`
	AmountCents int64       `gorm:"not null" json:"amount_cents"`
	Status      string      `gorm:"size:16;index;not null;default:pending" json:"status"`
	Reference   string      `gorm:"size:64;uniqueIndex;not null" json:"reference"`
	ExpiresAt   time.Time   `gorm:"not null" json:"expires_at"`
	DecidedAt   *time.Time  `json:"decided_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	Student     Student     `json:"-"`
}

// Expired reports whether the request's deadline has elapsed at the given
// reference time.
func (p PaymentRequest) Expired(reference time.Time) bool {
	return !p.ExpiresAt.After(reference)
}
