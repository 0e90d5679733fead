package service

import "errors"

// Principal roles. The owner is a singular, implicit principal configured at
// boot; supervisors and students are database-backed identities.
const (
	RoleOwner      = "owner"
	RoleSupervisor = "supervisor"
	RoleStudent    = "student"
)

// ErrUnauthenticated indicates no valid principal was presented.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden indicates an authenticated principal lacking the required
// capability.
var ErrForbidden = errors.New("forbidden")

// Principal identifies the authenticated actor for an operation. Identity is
// threaded explicitly into every call rather than read from ambient state.
type Principal struct {
	Role string
	ID   uint
}

// IsStaff reports whether the principal may reach staff operations at all.
func (p Principal) IsStaff() bool {
	return p.Role == RoleOwner || p.Role == RoleSupervisor
}
