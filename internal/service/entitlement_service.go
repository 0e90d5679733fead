package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// ErrLessonNotFound indicates the lesson does not exist.
var ErrLessonNotFound = errors.New("lesson not found")

// ErrCourseNotFound indicates the course does not exist.
var ErrCourseNotFound = errors.New("course not found")

// Denial reasons, specific enough to drive distinct UI messages.
const (
	ReasonCourseSubscriptionRequired = "course_subscription_required"
	ReasonSubscriptionRequired       = "subscription_required"
)

// AccessDecision is the outcome of an entitlement check. Reason is empty when
// access is granted.
type AccessDecision struct {
	Granted bool
	Reason  string
}

// UnlockSet holds a student's entitlement identities for bulk catalog checks.
type UnlockSet struct {
	Courses map[uint]struct{}
	Lessons map[uint]struct{}
}

// HasCourse reports a course-level entitlement.
func (u UnlockSet) HasCourse(courseID uint) bool {
	_, ok := u.Courses[courseID]
	return ok
}

// HasLesson reports a lesson-level entitlement.
func (u UnlockSet) HasLesson(lessonID uint) bool {
	_, ok := u.Lessons[lessonID]
	return ok
}

// EntitlementService decides, for any student and any content unit, whether
// access is currently permitted, and records new grants.
type EntitlementService interface {
	CanAccess(ctx context.Context, studentID, lessonID uint) (AccessDecision, error)
	Grant(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) error
	HasEntitlement(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) (bool, error)
	UnlockSet(ctx context.Context, studentID uint) (UnlockSet, error)
}

type entitlementService struct {
	entitlements repository.EntitlementRepository
	content      repository.ContentRepository
	logger       zerolog.Logger
	now          func() time.Time
}

// NewEntitlementService builds the entitlement resolver.
func NewEntitlementService(entitlements repository.EntitlementRepository, content repository.ContentRepository, logger zerolog.Logger) EntitlementService {
	return &entitlementService{
		entitlements: entitlements,
		content:      content,
		logger:       logger.With().Str("component", "entitlement_service").Logger(),
		now:          time.Now,
	}
}

// CanAccess applies the resolution order: course entitlement, lesson
// entitlement, free course, course-only lesson, free individual lesson. The
// ordering is load-bearing; a course purchase always supersedes lesson-level
// pricing.
func (s *entitlementService) CanAccess(ctx context.Context, studentID, lessonID uint) (AccessDecision, error) {
	lesson, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AccessDecision{}, ErrLessonNotFound
		}
		return AccessDecision{}, err
	}

	unlocks, err := s.UnlockSet(ctx, studentID)
	if err != nil {
		return AccessDecision{}, err
	}

	if unlocks.HasCourse(lesson.CourseID) {
		return AccessDecision{Granted: true}, nil
	}
	if unlocks.HasLesson(lesson.ID) {
		return AccessDecision{Granted: true}, nil
	}
	return decideByPricing(lesson), nil
}

func (s *entitlementService) Grant(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) error {
	entitlement := models.Entitlement{
		StudentID: studentID,
		Kind:      kind,
		TargetID:  targetID,
		GrantedAt: s.now(),
	}
	return s.entitlements.Grant(ctx, &entitlement)
}

func (s *entitlementService) HasEntitlement(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) (bool, error) {
	return s.entitlements.Exists(ctx, studentID, kind, targetID)
}

func (s *entitlementService) UnlockSet(ctx context.Context, studentID uint) (UnlockSet, error) {
	entitlements, err := s.entitlements.ListByStudent(ctx, studentID)
	if err != nil {
		return UnlockSet{}, err
	}

	unlocks := UnlockSet{
		Courses: make(map[uint]struct{}),
		Lessons: make(map[uint]struct{}),
	}
	for _, entitlement := range entitlements {
		switch entitlement.Kind {
		case models.KindCourse:
			unlocks.Courses[entitlement.TargetID] = struct{}{}
		case models.KindLesson:
			unlocks.Lessons[entitlement.TargetID] = struct{}{}
		}
	}
	return unlocks, nil
}

// decideByPricing resolves access for a student holding no entitlement on the
// lesson or its course.
func decideByPricing(lesson models.Lesson) AccessDecision {
	if lesson.Course.IsFree() {
		return AccessDecision{Granted: true}
	}
	if !lesson.IsIndividual {
		return AccessDecision{Reason: ReasonCourseSubscriptionRequired}
	}
	if lesson.IndividualPriceCents <= 0 {
		return AccessDecision{Granted: true}
	}
	return AccessDecision{Reason: ReasonSubscriptionRequired}
}
