package dto

import "time"

// IssueCodeResponse is returned to staff after minting an access code for a
// student. The code value is shown once; it is relayed out of band.
type IssueCodeResponse struct {
	StudentID   uint      `json:"student_id"`
	StudentName string    `json:"student_name"`
	Phone       string    `json:"phone"`
	Code        string    `json:"code"`
	ExpiresAt   time.Time `json:"expires_at"`
}
