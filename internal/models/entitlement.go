package models

import "time"

// ContentKind distinguishes course-level from lesson-level targets in
// entitlements and payment requests.
type ContentKind string

const (
	KindCourse ContentKind = "course"
	KindLesson ContentKind = "lesson"
)

// Valid reports whether the kind belongs to the closed set.
func (k ContentKind) Valid() bool {
	return k == KindCourse || k == KindLesson
}

// Entitlement is an immutable grant of access to a content unit. Once written
// it never expires and is never revoked by the engine. At most one row exists
// per (student, kind, target).
type Entitlement struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	StudentID uint        `gorm:"uniqueIndex:idx_entitlements_identity;not null" json:"student_id"`
	Kind      ContentKind `gorm:"uniqueIndex:idx_entitlements_identity;size:16;not null" json:"kind"`
	TargetID  uint        `gorm:"uniqueIndex:idx_entitlements_identity;not null" json:"target_id"`
	GrantedAt time.Time   `gorm:"not null" json:"granted_at"`
}
