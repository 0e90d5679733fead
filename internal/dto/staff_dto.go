package dto

import (
	"time"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// SupervisorCreateRequest provisions a new supervisor with an initial
// capability set. Owner only.
type SupervisorCreateRequest struct {
	FullName     string   `json:"full_name" validate:"required,min=3,max=255"`
	Phone        string   `json:"phone" validate:"required,min=8,max=20"`
	Password     string   `json:"password" validate:"required,min=6,max=128"`
	Capabilities []string `json:"capabilities" validate:"dive,min=3"`
}

// SupervisorUpdateRequest mutates a supervisor's capability set or password.
type SupervisorUpdateRequest struct {
	FullName     *string   `json:"full_name" validate:"omitempty,min=3,max=255"`
	Password     *string   `json:"password" validate:"omitempty,min=6,max=128"`
	Capabilities *[]string `json:"capabilities" validate:"omitempty,dive,min=3"`
}

// SupervisorResponse serializes a supervisor for the owner panel.
type SupervisorResponse struct {
	ID           uint      `json:"id"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	Capabilities []string  `json:"capabilities"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewSupervisorResponse converts a supervisor model.
func NewSupervisorResponse(model models.Supervisor) SupervisorResponse {
	return SupervisorResponse{
		ID:           model.ID,
		FullName:     model.FullName,
		Phone:        model.Phone,
		Capabilities: model.CapabilitySet().Strings(),
		CreatedAt:    model.CreatedAt,
	}
}

// BroadcastRequest sends a sanitized notification to a student audience.
type BroadcastRequest struct {
	Message string `json:"message" validate:"required,min=1,max=500"`
	Grade   string `json:"grade" validate:"omitempty,max=64"`
}

// BroadcastResponse reports how many students were notified.
type BroadcastResponse struct {
	Recipients int `json:"recipients"`
}

// NotificationResponse serializes a learner notification.
type NotificationResponse struct {
	ID        uint       `json:"id"`
	StudentID uint       `json:"student_id"`
	Message   string     `json:"message"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewNotificationResponse converts a notification model.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		StudentID: model.StudentID,
		Message:   model.Message,
		ReadAt:    model.ReadAt,
		CreatedAt: model.CreatedAt,
	}
}

// AuditListRequest filters the audit trail.
type AuditListRequest struct {
	Action string
	Limit  int
}

// AuditEntryResponse serializes one audit row.
type AuditEntryResponse struct {
	ID         uint                   `json:"id"`
	ActorRole  string                 `json:"actor_role"`
	ActorID    *uint                  `json:"actor_id,omitempty"`
	Action     string                 `json:"action"`
	TargetType string                 `json:"target_type,omitempty"`
	TargetID   *uint                  `json:"target_id,omitempty"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewAuditEntryResponse converts an audit model.
func NewAuditEntryResponse(model models.AuditLog) AuditEntryResponse {
	return AuditEntryResponse{
		ID:         model.ID,
		ActorRole:  model.ActorRole,
		ActorID:    model.ActorID,
		Action:     model.Action,
		TargetType: model.TargetType,
		TargetID:   model.TargetID,
		Metadata:   model.Metadata,
		CreatedAt:  model.CreatedAt,
	}
}

// StudentSummaryResponse lists students for staff views.
type StudentSummaryResponse struct {
	ID            uint      `json:"id"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	Grade         string    `json:"grade"`
	GuardianPhone string    `json:"guardian_phone,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// NewStudentSummaryResponse converts a student model for staff listings.
func NewStudentSummaryResponse(model models.Student) StudentSummaryResponse {
	return StudentSummaryResponse{
		ID:            model.ID,
		FullName:      model.FullName,
		Phone:         model.Phone,
		Grade:         model.Grade,
		GuardianPhone: model.GuardianPhone,
		CreatedAt:     model.CreatedAt,
	}
}
