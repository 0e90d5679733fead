package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

type fakeEntitlementRepo struct {
	rows []models.Entitlement
}

func (r *fakeEntitlementRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Entitlement, error) {
	matched := make([]models.Entitlement, 0)
	for _, row := range r.rows {
		if row.StudentID == studentID {
			matched = append(matched, row)
		}
	}
	return matched, nil
}

func (r *fakeEntitlementRepo) Exists(_ context.Context, studentID uint, kind models.ContentKind, targetID uint) (bool, error) {
	for _, row := range r.rows {
		if row.StudentID == studentID && row.Kind == kind && row.TargetID == targetID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEntitlementRepo) Grant(_ context.Context, entitlement *models.Entitlement) error {
	exists, _ := r.Exists(context.Background(), entitlement.StudentID, entitlement.Kind, entitlement.TargetID)
	if exists {
		return nil
	}
	entitlement.ID = uint(len(r.rows) + 1)
	r.rows = append(r.rows, *entitlement)
	return nil
}

type fakeContentRepo struct {
	courses map[uint]models.Course
	lessons map[uint]models.Lesson
	views   []models.LessonView
	viewErr error
}

func (r *fakeContentRepo) ListCourses(context.Context) ([]models.Course, error) {
	courses := make([]models.Course, 0, len(r.courses))
	for id := uint(1); id <= uint(len(r.courses)); id++ {
		if course, ok := r.courses[id]; ok {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

func (r *fakeContentRepo) GetCourse(_ context.Context, id uint) (models.Course, error) {
	course, ok := r.courses[id]
	if !ok {
		return models.Course{}, gorm.ErrRecordNotFound
	}
	return course, nil
}

func (r *fakeContentRepo) ListLessons(_ context.Context, courseID uint) ([]models.Lesson, error) {
	lessons := make([]models.Lesson, 0)
	for id := uint(1); id <= uint(len(r.lessons)); id++ {
		lesson, ok := r.lessons[id]
		if ok && lesson.CourseID == courseID {
			lessons = append(lessons, lesson)
		}
	}
	return lessons, nil
}

func (r *fakeContentRepo) GetLesson(_ context.Context, id uint) (models.Lesson, error) {
	lesson, ok := r.lessons[id]
	if !ok {
		return models.Lesson{}, gorm.ErrRecordNotFound
	}
	if course, ok := r.courses[lesson.CourseID]; ok {
		lesson.Course = course
	}
	return lesson, nil
}

func (r *fakeContentRepo) RecordLessonView(_ context.Context, studentID, lessonID uint, viewedAt time.Time) error {
	if r.viewErr != nil {
		return r.viewErr
	}
	r.views = append(r.views, models.LessonView{StudentID: studentID, LessonID: lessonID, LastViewedAt: viewedAt})
	return nil
}

func newEntitlementFixture() (*fakeEntitlementRepo, *fakeContentRepo, EntitlementService) {
	entitlements := &fakeEntitlementRepo{}
	content := &fakeContentRepo{
		courses: map[uint]models.Course{
			1: {ID: 1, Title: "Algebra", PriceCents: 50000},
			2: {ID: 2, Title: "Intro", PriceCents: 0},
		},
		lessons: map[uint]models.Lesson{
			1: {ID: 1, CourseID: 1, Title: "Equations"},
			2: {ID: 2, CourseID: 1, Title: "Sample", IsIndividual: true, IndividualPriceCents: 0},
			3: {ID: 3, CourseID: 1, Title: "Inequalities", IsIndividual: true, IndividualPriceCents: 9000},
			4: {ID: 4, CourseID: 2, Title: "Welcome"},
		},
	}
	svc := NewEntitlementService(entitlements, content, testLogger())
	return entitlements, content, svc
}

func TestCanAccessCourseEntitlementWinsOverLessonPricing(t *testing.T) {
	entitlements, _, svc := newEntitlementFixture()
	entitlements.rows = []models.Entitlement{{ID: 1, StudentID: 7, Kind: models.KindCourse, TargetID: 1}}

	// Lesson 3 is individually priced, but the course entitlement resolves
	// first and grants access.
	decision, err := svc.CanAccess(context.Background(), 7, 3)
	require.NoError(t, err)
	require.True(t, decision.Granted)
	require.Empty(t, decision.Reason)
}

func TestCanAccessLessonEntitlement(t *testing.T) {
	entitlements, _, svc := newEntitlementFixture()
	entitlements.rows = []models.Entitlement{{ID: 1, StudentID: 7, Kind: models.KindLesson, TargetID: 3}}

	decision, err := svc.CanAccess(context.Background(), 7, 3)
	require.NoError(t, err)
	require.True(t, decision.Granted)

	// The lesson entitlement does not spill over to siblings.
	other, err := svc.CanAccess(context.Background(), 7, 1)
	require.NoError(t, err)
	require.False(t, other.Granted)
}

func TestCanAccessFreeCourse(t *testing.T) {
	_, _, svc := newEntitlementFixture()

	decision, err := svc.CanAccess(context.Background(), 7, 4)
	require.NoError(t, err)
	require.True(t, decision.Granted)
}

func TestCanAccessCourseOnlyLessonRequiresCourseSubscription(t *testing.T) {
	_, _, svc := newEntitlementFixture()

	decision, err := svc.CanAccess(context.Background(), 7, 1)
	require.NoError(t, err)
	require.False(t, decision.Granted)
	require.Equal(t, ReasonCourseSubscriptionRequired, decision.Reason)
}

func TestCanAccessFreeIndividualLesson(t *testing.T) {
	_, _, svc := newEntitlementFixture()

	decision, err := svc.CanAccess(context.Background(), 7, 2)
	require.NoError(t, err)
	require.True(t, decision.Granted)
}

func TestCanAccessPaidIndividualLessonRequiresSubscription(t *testing.T) {
	_, _, svc := newEntitlementFixture()

	decision, err := svc.CanAccess(context.Background(), 7, 3)
	require.NoError(t, err)
	require.False(t, decision.Granted)
	require.Equal(t, ReasonSubscriptionRequired, decision.Reason)
}

func TestCanAccessUnknownLesson(t *testing.T) {
	_, _, svc := newEntitlementFixture()

	_, err := svc.CanAccess(context.Background(), 7, 99)
	require.ErrorIs(t, err, ErrLessonNotFound)
}

func TestUnlockSetSplitsByKind(t *testing.T) {
	entitlements, _, svc := newEntitlementFixture()
	entitlements.rows = []models.Entitlement{
		{ID: 1, StudentID: 7, Kind: models.KindCourse, TargetID: 1},
		{ID: 2, StudentID: 7, Kind: models.KindLesson, TargetID: 3},
		{ID: 3, StudentID: 8, Kind: models.KindCourse, TargetID: 2},
	}

	unlocks, err := svc.UnlockSet(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, unlocks.HasCourse(1))
	require.True(t, unlocks.HasLesson(3))
	require.False(t, unlocks.HasCourse(2))
	require.False(t, unlocks.HasLesson(1))
}

func TestGrantRecordsEntitlement(t *testing.T) {
	entitlements, _, svc := newEntitlementFixture()

	require.NoError(t, svc.Grant(context.Background(), 7, models.KindCourse, 1))

	held, err := svc.HasEntitlement(context.Background(), 7, models.KindCourse, 1)
	require.NoError(t, err)
	require.True(t, held)
	require.Len(t, entitlements.rows, 1)
	require.False(t, entitlements.rows[0].GrantedAt.IsZero())
}
