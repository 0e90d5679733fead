package dto

import (
	"time"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// AttemptSessionResponse is the payload returned on opening an attempt.
// Questions arrive shuffled and never include the correct option.
type AttemptSessionResponse struct {
	AssessmentID      uint               `json:"assessment_id"`
	Kind              string             `json:"kind"`
	Title             string             `json:"title"`
	DurationMinutes   int                `json:"duration_minutes"`
	AttemptsUsed      int                `json:"attempts_used"`
	AttemptsAllowed   int                `json:"attempts_allowed"`
	AttemptsRemaining int                `json:"attempts_remaining"`
	OfficialScore     *OfficialScore     `json:"official_score,omitempty"`
	Questions         []QuestionResponse `json:"questions"`
}

// OfficialScore reports the first attempt's permanent result.
type OfficialScore struct {
	AttemptID uint      `json:"attempt_id"`
	Score     int       `json:"score"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// QuestionResponse serializes a question for a student taking an attempt.
type QuestionResponse struct {
	ID       uint      `json:"id"`
	Text     string    `json:"text"`
	ImageURL string    `json:"image_url,omitempty"`
	Options  [4]string `json:"options"`
	Points   int       `json:"points"`
}

// NewQuestionResponse converts a question model, withholding the answer key.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:       model.ID,
		Text:     model.Text,
		ImageURL: model.ImageURL,
		Options:  model.Options(),
		Points:   model.Points,
	}
}

// AnswerSubmission is one question's answer within a submit payload. An
// out-of-range or missing chosen option scores zero, never an error.
type AnswerSubmission struct {
	QuestionID   uint `json:"question_id" validate:"required,gt=0"`
	ChosenOption int  `json:"chosen_option"`
}

// SubmitRequest carries a full attempt submission. SpentSeconds is clamped
// server-side; the client value is never trusted.
type SubmitRequest struct {
	Answers      []AnswerSubmission `json:"answers" validate:"dive"`
	SpentSeconds int                `json:"spent_seconds"`
}

// AnswerDetail reports per-question grading in submit responses and history.
type AnswerDetail struct {
	QuestionID    uint   `json:"question_id"`
	Question      string `json:"question"`
	ChosenOption  int    `json:"chosen_option"`
	ChosenText    string `json:"chosen_text"`
	CorrectOption int    `json:"correct_option"`
	CorrectText   string `json:"correct_text"`
	IsCorrect     bool   `json:"is_correct"`
	PointsAwarded int    `json:"points_awarded"`
	Points        int    `json:"points"`
}

// SubmitResultResponse reports the scored attempt. Score/Total carry the
// official (first attempt) result; CurrentScore/CurrentTotal always reflect
// this attempt.
type SubmitResultResponse struct {
	AttemptID         uint           `json:"attempt_id"`
	AssessmentKind    string         `json:"assessment_kind"`
	Score             int            `json:"score"`
	Total             int            `json:"total"`
	CurrentScore      int            `json:"current_score"`
	CurrentTotal      int            `json:"current_total"`
	IsFirstAttempt    bool           `json:"is_first_attempt"`
	SpentSeconds      int            `json:"spent_seconds"`
	AttemptsUsed      int            `json:"attempts_used"`
	AttemptsAllowed   int            `json:"attempts_allowed"`
	AttemptsRemaining int            `json:"attempts_remaining"`
	Details           []AnswerDetail `json:"details"`
}

// AttemptHistoryResponse is one past attempt with its graded answers.
type AttemptHistoryResponse struct {
	AttemptID       uint           `json:"attempt_id"`
	AssessmentID    uint           `json:"assessment_id"`
	AssessmentKind  string         `json:"assessment_kind"`
	AssessmentTitle string         `json:"assessment_title"`
	LessonTitle     string         `json:"lesson_title,omitempty"`
	Score           int            `json:"score"`
	Total           int            `json:"total"`
	SpentSeconds    int            `json:"spent_seconds"`
	CreatedAt       time.Time      `json:"created_at"`
	Details         []AnswerDetail `json:"details"`
}
