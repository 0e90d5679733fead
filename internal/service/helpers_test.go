package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

type recordingAudit struct {
	entries []AuditEntry
}

func (a *recordingAudit) Record(_ context.Context, entry AuditEntry) {
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) actions() []string {
	actions := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

// staticPermissions answers every check with a fixed error and records
// invalidations.
type staticPermissions struct {
	err         error
	invalidated []uint
}

func (p *staticPermissions) Authorize(context.Context, Principal, models.Capability) error {
	return p.err
}

func (p *staticPermissions) AuthorizeAny(context.Context, Principal, ...models.Capability) error {
	return p.err
}

func (p *staticPermissions) Invalidate(_ context.Context, supervisorID uint) {
	p.invalidated = append(p.invalidated, supervisorID)
}

type fakeStudentRepo struct {
	students  []models.Student
	passwords map[uint]string
}

func (r *fakeStudentRepo) List(context.Context) ([]models.Student, error) {
	return r.students, nil
}

func (r *fakeStudentRepo) ListIDsByGrade(_ context.Context, grade string) ([]uint, error) {
	ids := make([]uint, 0, len(r.students))
	for _, student := range r.students {
		if grade != "" && student.Grade != grade {
			continue
		}
		ids = append(ids, student.ID)
	}
	return ids, nil
}

func (r *fakeStudentRepo) GetByID(_ context.Context, id uint) (models.Student, error) {
	for _, student := range r.students {
		if student.ID == id {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) GetByPhone(_ context.Context, phone string) (models.Student, error) {
	for _, student := range r.students {
		if student.Phone == phone {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) GetByEmail(_ context.Context, email string) (models.Student, error) {
	for _, student := range r.students {
		if student.Email == email {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) UpdatePassword(_ context.Context, id uint, passwordHash string) error {
	for _, student := range r.students {
		if student.ID == id {
			if r.passwords == nil {
				r.passwords = make(map[uint]string)
			}
			r.passwords[id] = passwordHash
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

// stubEntitlements answers CanAccess with a fixed decision and tracks grants
// keyed by student, kind and target.
type stubEntitlements struct {
	decision AccessDecision
	held     map[string]bool
	grants   []models.Entitlement
}

func entitlementKey(studentID uint, kind models.ContentKind, targetID uint) string {
	return fmt.Sprintf("%d/%s/%d", studentID, kind, targetID)
}

func (s *stubEntitlements) CanAccess(context.Context, uint, uint) (AccessDecision, error) {
	return s.decision, nil
}

func (s *stubEntitlements) Grant(_ context.Context, studentID uint, kind models.ContentKind, targetID uint) error {
	if s.held == nil {
		s.held = make(map[string]bool)
	}
	s.held[entitlementKey(studentID, kind, targetID)] = true
	s.grants = append(s.grants, models.Entitlement{StudentID: studentID, Kind: kind, TargetID: targetID})
	return nil
}

func (s *stubEntitlements) HasEntitlement(_ context.Context, studentID uint, kind models.ContentKind, targetID uint) (bool, error) {
	return s.held[entitlementKey(studentID, kind, targetID)], nil
}

func (s *stubEntitlements) UnlockSet(context.Context, uint) (UnlockSet, error) {
	unlocks := UnlockSet{Courses: make(map[uint]struct{}), Lessons: make(map[uint]struct{})}
	for _, grant := range s.grants {
		switch grant.Kind {
		case models.KindCourse:
			unlocks.Courses[grant.TargetID] = struct{}{}
		case models.KindLesson:
			unlocks.Lessons[grant.TargetID] = struct{}{}
		}
	}
	return unlocks, nil
}
