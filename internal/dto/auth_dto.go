package dto

// StudentLoginRequest is the phone/password credential payload for learners.
type StudentLoginRequest struct {
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=6"`
}

// StaffLoginRequest authenticates the owner or a supervisor.
type StaffLoginRequest struct {
	Phone    string `json:"phone" validate:"required,min=8,max=20"`
	Password string `json:"password" validate:"required,min=6"`
}

// CodeLoginRequest redeems a one-time access code in place of a password.
type CodeLoginRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ChangePasswordRequest sets a new permanent password. It is accepted only
// from a code-login session carrying the must-change-password flag.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// SessionResponse carries an issued bearer token and its role.
type SessionResponse struct {
	Token              string `json:"token"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
}

// ResetCodeRequest asks for a password-reset access code. Phone and email
// must belong to the same student account.
type ResetCodeRequest struct {
	Phone string `json:"phone" validate:"required,min=8,max=20"`
	Email string `json:"email" validate:"required,email"`
}

// ResetCodeResponse acknowledges a reset request without revealing the code.
type ResetCodeResponse struct {
	ExpiresInHours int `json:"expires_in_hours"`
}
