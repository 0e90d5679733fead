package models

import "time"

// Course groups lessons under a single price and grade.
type Course struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	PriceCents  int64     `gorm:"not null;default:0" json:"price_cents"`
	Subject     string    `gorm:"size:128" json:"subject"`
	Grade       string    `gorm:"size:64" json:"grade"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Lessons     []Lesson  `json:"-"`
}

// IsFree reports whether the course opens without any entitlement.
func (c Course) IsFree() bool {
	return c.PriceCents <= 0
}

// Lesson belongs to a course and may optionally be purchasable on its own.
// IndividualPriceCents is meaningful only when IsIndividual is set; otherwise
// accessibility derives entirely from the parent course.
type Lesson struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	CourseID             uint      `gorm:"index;not null" json:"course_id"`
	Title                string    `gorm:"size:255;not null" json:"title"`
	Description          string    `gorm:"type:text" json:"description"`
	ImageURL             string    `gorm:"size:512" json:"image_url"`
	VideoURL             string    `gorm:"size:512" json:"video_url"`
	IsIndividual         bool      `gorm:"not null;default:false" json:"is_individual"`
	IndividualPriceCents int64     `gorm:"not null;default:0" json:"individual_price_cents"`
	Position             int       `gorm:"not null;default:1" json:"position"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
	Course               Course    `json:"-"`
}

// LessonView records the latest time a student opened a lesson. One row per
// (student, lesson); repeated views bump LastViewedAt.
type LessonView struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    uint      `gorm:"uniqueIndex:idx_lesson_views_identity;not null" json:"student_id"`
	LessonID     uint      `gorm:"uniqueIndex:idx_lesson_views_identity;not null" json:"lesson_id"`
	LastViewedAt time.Time `gorm:"not null" json:"last_viewed_at"`
	CreatedAt    time.Time `json:"created_at"`
}
