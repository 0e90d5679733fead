package dto

import "github.com/darsy-edu/darsy-api/internal/models"

// CourseResponse is a catalog entry with the caller's unlock state applied.
type CourseResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	PriceCents  int64  `json:"price_cents"`
	Subject     string `json:"subject"`
	Grade       string `json:"grade"`
	Unlocked    bool   `json:"unlocked"`
}

// NewCourseResponse converts a course with a resolved unlock flag.
func NewCourseResponse(model models.Course, unlocked bool) CourseResponse {
	return CourseResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		ImageURL:    model.ImageURL,
		PriceCents:  model.PriceCents,
		Subject:     model.Subject,
		Grade:       model.Grade,
		Unlocked:    unlocked,
	}
}

// LessonResponse is a lesson catalog entry. VideoURL is populated only when
// the caller holds access.
type LessonResponse struct {
	ID                   uint   `json:"id"`
	CourseID             uint   `json:"course_id"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	ImageURL             string `json:"image_url"`
	VideoURL             string `json:"video_url,omitempty"`
	IsIndividual         bool   `json:"is_individual"`
	IndividualPriceCents int64  `json:"individual_price_cents,omitempty"`
	Position             int    `json:"position"`
	Unlocked             bool   `json:"unlocked"`
}

// NewLessonResponse converts a lesson, withholding the video URL when locked.
func NewLessonResponse(model models.Lesson, unlocked bool) LessonResponse {
	response := LessonResponse{
		ID:           model.ID,
		CourseID:     model.CourseID,
		Title:        model.Title,
		Description:  model.Description,
		ImageURL:     model.ImageURL,
		IsIndividual: model.IsIndividual,
		Position:     model.Position,
		Unlocked:     unlocked,
	}
	if model.IsIndividual {
		response.IndividualPriceCents = model.IndividualPriceCents
	}
	if unlocked {
		response.VideoURL = model.VideoURL
	}
	return response
}

// AccessDecisionResponse reports canAccess for one lesson. Reason is set only
// on denial and is specific enough to drive distinct UI messages.
type AccessDecisionResponse struct {
	Granted bool   `json:"granted"`
	Reason  string `json:"reason,omitempty"`
}
