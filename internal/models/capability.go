package models

// Capability is a named permission a supervisor may hold. The owner role
// implicitly satisfies every capability check.
type Capability string

const (
	CapCoursesWrite      Capability = "courses:write"
	CapLessonsWrite      Capability = "lessons:write"
	CapAssessmentsWrite  Capability = "assessments:write"
	CapQuestionsWrite    Capability = "questions:write"
	CapStudentsRead      Capability = "students:read"
	CapAlertsRead        Capability = "alerts:read"
	CapStudentCodesWrite Capability = "students:codes:write"
	CapNotificationsSend Capability = "notifications:send"
	CapAttemptsRead      Capability = "attempts:read"
	CapPaymentsRead      Capability = "payments:read"
	CapPaymentsApprove   Capability = "payments:approve"
	CapSubscribersRead   Capability = "subscribers:read"
	CapSupervisorsManage Capability = "supervisors:manage"
	CapAuditRead         Capability = "audit:read"
)

// AllCapabilities lists every assignable capability, used to validate
// supervisor updates and to render the assignment UI.
func AllCapabilities() []Capability {
	return []Capability{
		CapCoursesWrite,
		CapLessonsWrite,
		CapAssessmentsWrite,
		CapQuestionsWrite,
		CapStudentsRead,
		CapAlertsRead,
		CapStudentCodesWrite,
		CapNotificationsSend,
		CapAttemptsRead,
		CapPaymentsRead,
		CapPaymentsApprove,
		CapSubscribersRead,
		CapSupervisorsManage,
		CapAuditRead,
	}
}

// IsKnownCapability reports whether the given string names a capability from
// the closed set. Unknown strings persisted for a supervisor are ignored at
// resolution time.
func IsKnownCapability(value string) bool {
	for _, capability := range AllCapabilities() {
		if string(capability) == value {
			return true
		}
	}
	return false
}

// CapabilitySet is the resolved set of capabilities held by a principal.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from raw capability strings, dropping
// anything outside the closed set.
func NewCapabilitySet(values []string) CapabilitySet {
	set := make(CapabilitySet, len(values))
	for _, value := range values {
		if IsKnownCapability(value) {
			set[Capability(value)] = struct{}{}
		}
	}
	return set
}

// Has reports membership of a single capability.
func (s CapabilitySet) Has(capability Capability) bool {
	_, ok := s[capability]
	return ok
}

// Strings returns the set as a sorted-insensitive slice for persistence.
func (s CapabilitySet) Strings() []string {
	values := make([]string, 0, len(s))
	for capability := range s {
		values = append(values, string(capability))
	}
	return values
}
