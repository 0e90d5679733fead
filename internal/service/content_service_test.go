package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/darsy-edu/darsy-api/internal/models"
)

func newContentFixture() (*fakeEntitlementRepo, *fakeContentRepo, ContentService) {
	entitlements := &fakeEntitlementRepo{}
	content := &fakeContentRepo{
		courses: map[uint]models.Course{
			1: {ID: 1, Title: "Algebra", PriceCents: 50000},
			2: {ID: 2, Title: "Intro", PriceCents: 0},
		},
		lessons: map[uint]models.Lesson{
			1: {ID: 1, CourseID: 1, Title: "Equations", VideoURL: "https://cdn/v/1"},
			2: {ID: 2, CourseID: 1, Title: "Sample", VideoURL: "https://cdn/v/2", IsIndividual: true, IndividualPriceCents: 0},
			3: {ID: 3, CourseID: 1, Title: "Inequalities", VideoURL: "https://cdn/v/3", IsIndividual: true, IndividualPriceCents: 9000},
		},
	}
	resolver := NewEntitlementService(entitlements, content, testLogger())
	svc := NewContentService(content, resolver, testLogger())
	return entitlements, content, svc
}

func TestListCoursesAppliesUnlockState(t *testing.T) {
	entitlements, _, svc := newContentFixture()

	courses, err := svc.ListCourses(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	require.False(t, courses[0].Unlocked)
	require.True(t, courses[1].Unlocked)

	entitlements.rows = []models.Entitlement{{ID: 1, StudentID: 7, Kind: models.KindCourse, TargetID: 1}}
	courses, err = svc.ListCourses(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, courses[0].Unlocked)
}

func TestListLessonsWithholdsVideoWhenLocked(t *testing.T) {
	_, _, svc := newContentFixture()

	lessons, err := svc.ListLessons(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Len(t, lessons, 3)

	require.False(t, lessons[0].Unlocked)
	require.Empty(t, lessons[0].VideoURL)

	// The free individual lesson is open inside a paid course.
	require.True(t, lessons[1].Unlocked)
	require.Equal(t, "https://cdn/v/2", lessons[1].VideoURL)

	require.False(t, lessons[2].Unlocked)
	require.Equal(t, int64(9000), lessons[2].IndividualPriceCents)
}

func TestListLessonsUnknownCourse(t *testing.T) {
	_, _, svc := newContentFixture()

	_, err := svc.ListLessons(context.Background(), 7, 99)
	require.ErrorIs(t, err, ErrCourseNotFound)
}

func TestCheckAccessReportsReason(t *testing.T) {
	_, _, svc := newContentFixture()

	decision, err := svc.CheckAccess(context.Background(), 7, 1)
	require.NoError(t, err)
	require.False(t, decision.Granted)
	require.Equal(t, ReasonCourseSubscriptionRequired, decision.Reason)

	decision, err = svc.CheckAccess(context.Background(), 7, 2)
	require.NoError(t, err)
	require.True(t, decision.Granted)
	require.Empty(t, decision.Reason)
}

func TestViewLessonRecordsView(t *testing.T) {
	entitlements, content, svc := newContentFixture()
	entitlements.rows = []models.Entitlement{{ID: 1, StudentID: 7, Kind: models.KindCourse, TargetID: 1}}

	lesson, err := svc.ViewLesson(context.Background(), 7, 1)
	require.NoError(t, err)
	require.True(t, lesson.Unlocked)
	require.Equal(t, "https://cdn/v/1", lesson.VideoURL)
	require.Len(t, content.views, 1)
	require.Equal(t, uint(7), content.views[0].StudentID)
}

func TestViewLessonLocked(t *testing.T) {
	_, content, svc := newContentFixture()

	_, err := svc.ViewLesson(context.Background(), 7, 3)
	require.ErrorIs(t, err, ErrContentLocked)
	require.Empty(t, content.views)
}

func TestViewLessonSurvivesViewWriteFailure(t *testing.T) {
	entitlements, content, svc := newContentFixture()
	entitlements.rows = []models.Entitlement{{ID: 1, StudentID: 7, Kind: models.KindCourse, TargetID: 1}}
	content.viewErr = context.DeadlineExceeded

	lesson, err := svc.ViewLesson(context.Background(), 7, 1)
	require.NoError(t, err)
	require.True(t, lesson.Unlocked)
}
