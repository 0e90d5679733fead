package dto

import (
	"time"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// Subscribe outcome states returned by the payment ledger. "granted" is the
// direct-entitlement path for free content, "already_granted" the idempotent
// repeat, "reused" an existing pending request, "created" a fresh one.
const (
	SubscribeStatusGranted        = "granted"
	SubscribeStatusAlreadyGranted = "already_granted"
	SubscribeStatusReused         = "reused"
	SubscribeStatusCreated        = "created"
)

// SubscribeRequest identifies the content unit a student wants to unlock.
type SubscribeRequest struct {
	TargetID uint `json:"target_id" validate:"required,gt=0"`
}

// SubscribeResponse reports the outcome of createOrReuseRequest. Reference,
// amount and expiry are present only on the ledger path.
type SubscribeResponse struct {
	Status      string     `json:"status"`
	Reference   string     `json:"reference,omitempty"`
	AmountCents int64      `json:"amount_cents,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// PaymentRequestResponse serializes a ledger entry for staff review.
type PaymentRequestResponse struct {
	ID           uint       `json:"id"`
	StudentID    uint       `json:"student_id"`
	StudentName  string     `json:"student_name,omitempty"`
	StudentPhone string     `json:"student_phone,omitempty"`
	Kind         string     `json:"kind"`
	TargetID     uint       `json:"target_id"`
	AmountCents  int64      `json:"amount_cents"`
	Status       string     `json:"status"`
	Reference    string     `json:"reference"`
	ExpiresAt    time.Time  `json:"expires_at"`
	DecidedAt    *time.Time `json:"decided_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewPaymentRequestResponse converts a ledger model into a DTO.
func NewPaymentRequestResponse(model models.PaymentRequest) PaymentRequestResponse {
	response := PaymentRequestResponse{
		ID:          model.ID,
		StudentID:   model.StudentID,
		Kind:        string(model.Kind),
		TargetID:    model.TargetID,
		AmountCents: model.AmountCents,
		Status:      model.Status,
		Reference:   model.Reference,
		ExpiresAt:   model.ExpiresAt,
		DecidedAt:   model.DecidedAt,
		CreatedAt:   model.CreatedAt,
	}
	if model.Student.ID != 0 {
		response.StudentName = model.Student.FullName
		response.StudentPhone = model.Student.Phone
	}
	return response
}

// NewPaymentRequestResponseSlice maps a slice of ledger models.
func NewPaymentRequestResponseSlice(items []models.PaymentRequest) []PaymentRequestResponse {
	responses := make([]PaymentRequestResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewPaymentRequestResponse(item))
	}
	return responses
}
