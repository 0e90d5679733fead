package models

import "time"

// Assessment kinds.
const (
	AssessmentKindQuiz     = "quiz"
	AssessmentKindHomework = "homework"
	AssessmentKindExam     = "exam"
)

// Assessment is a timed, scored, attempt-limited question set attached to a
// lesson.
type Assessment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	LessonID        uint       `gorm:"index;not null" json:"lesson_id"`
	Kind            string     `gorm:"size:16;not null" json:"kind"`
	Title           string     `gorm:"size:255;not null" json:"title"`
	DurationMinutes int        `gorm:"not null;default:300" json:"duration_minutes"`
	MaxAttempts     int        `gorm:"not null;default:1" json:"max_attempts"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	Questions       []Question `json:"-"`
}

// AttemptCeiling returns the configured attempt limit, never below one.
func (a Assessment) AttemptCeiling() int {
	if a.MaxAttempts < 1 {
		return 1
	}
	return a.MaxAttempts
}

// MaxSpentSeconds is the upper bound applied to client-reported timing.
func (a Assessment) MaxSpentSeconds() int {
	if a.DurationMinutes <= 0 {
		return 0
	}
	return a.DurationMinutes * 60
}

// Question holds a four-option multiple choice item. CorrectOption indexes
// into the options in the fixed range [0,3].
type Question struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	AssessmentID  uint   `gorm:"index;not null" json:"assessment_id"`
	Text          string `gorm:"type:text" json:"text"`
	ImageURL      string `gorm:"size:512" json:"image_url"`
	OptionA       string `gorm:"size:512;not null" json:"option_a"`
	OptionB       string `gorm:"size:512;not null" json:"option_b"`
	OptionC       string `gorm:"size:512;not null" json:"option_c"`
	OptionD       string `gorm:"size:512;not null" json:"option_d"`
	CorrectOption int    `gorm:"not null" json:"-"`
	Points        int    `gorm:"not null;default:1" json:"points"`
}

// Options returns the answer choices in display order.
func (q Question) Options() [4]string {
	return [4]string{q.OptionA, q.OptionB, q.OptionC, q.OptionD}
}

// Attempt is one scored pass through an assessment, immutable once written.
// The first attempt per (student, assessment) is the official record.
type Attempt struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	StudentID    uint            `gorm:"index:idx_attempts_identity;not null" json:"student_id"`
	AssessmentID uint            `gorm:"index:idx_attempts_identity;not null" json:"assessment_id"`
	Score        int             `gorm:"not null" json:"score"`
	Total        int             `gorm:"not null" json:"total"`
	SpentSeconds int             `gorm:"not null;default:0" json:"spent_seconds"`
	CreatedAt    time.Time       `json:"created_at"`
	Answers      []AttemptAnswer `json:"-"`
}

// AttemptAnswer captures one question's outcome within an attempt.
// ChosenOption is -1 when the question was left unanswered.
type AttemptAnswer struct {
	ID            uint `gorm:"primaryKey" json:"id"`
	AttemptID     uint `gorm:"index;not null" json:"attempt_id"`
	QuestionID    uint `gorm:"not null" json:"question_id"`
	ChosenOption  int  `gorm:"not null;default:-1" json:"chosen_option"`
	IsCorrect     bool `gorm:"not null" json:"is_correct"`
	PointsAwarded int  `gorm:"not null" json:"points_awarded"`
}
