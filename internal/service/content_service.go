package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// ContentService serves the catalog with the caller's unlock state applied
// and records lesson views for entitled students.
type ContentService interface {
	ListCourses(ctx context.Context, studentID uint) ([]dto.CourseResponse, error)
	ListLessons(ctx context.Context, studentID, courseID uint) ([]dto.LessonResponse, error)
	CheckAccess(ctx context.Context, studentID, lessonID uint) (dto.AccessDecisionResponse, error)
	ViewLesson(ctx context.Context, studentID, lessonID uint) (dto.LessonResponse, error)
}

type contentService struct {
	content      repository.ContentRepository
	entitlements EntitlementService
	logger       zerolog.Logger
	now          func() time.Time
}

// NewContentService builds the catalog reader.
func NewContentService(content repository.ContentRepository, entitlements EntitlementService, logger zerolog.Logger) ContentService {
	return &contentService{
		content:      content,
		entitlements: entitlements,
		logger:       logger.With().Str("component", "content_service").Logger(),
		now:          time.Now,
	}
}

func (s *contentService) ListCourses(ctx context.Context, studentID uint) ([]dto.CourseResponse, error) {
	courses, err := s.content.ListCourses(ctx)
	if err != nil {
		return nil, err
	}

	unlocks, err := s.entitlements.UnlockSet(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.CourseResponse, 0, len(courses))
	for _, course := range courses {
		unlocked := course.IsFree() || unlocks.HasCourse(course.ID)
		responses = append(responses, dto.NewCourseResponse(course, unlocked))
	}
	return responses, nil
}

func (s *contentService) ListLessons(ctx context.Context, studentID, courseID uint) ([]dto.LessonResponse, error) {
	course, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, err
	}

	lessons, err := s.content.ListLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}

	unlocks, err := s.entitlements.UnlockSet(ctx, studentID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		lesson.Course = course
		responses = append(responses, dto.NewLessonResponse(lesson, lessonUnlocked(lesson, unlocks)))
	}
	return responses, nil
}

func (s *contentService) CheckAccess(ctx context.Context, studentID, lessonID uint) (dto.AccessDecisionResponse, error) {
	decision, err := s.entitlements.CanAccess(ctx, studentID, lessonID)
	if err != nil {
		return dto.AccessDecisionResponse{}, err
	}
	return dto.AccessDecisionResponse{Granted: decision.Granted, Reason: decision.Reason}, nil
}

// ViewLesson returns the full lesson payload and records the view. Locked
// lessons return ErrContentLocked without recording anything.
func (s *contentService) ViewLesson(ctx context.Context, studentID, lessonID uint) (dto.LessonResponse, error) {
	decision, err := s.entitlements.CanAccess(ctx, studentID, lessonID)
	if err != nil {
		return dto.LessonResponse{}, err
	}
	if !decision.Granted {
		return dto.LessonResponse{}, ErrContentLocked
	}

	lesson, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrLessonNotFound
		}
		return dto.LessonResponse{}, err
	}

	if err := s.content.RecordLessonView(ctx, studentID, lessonID, s.now()); err != nil {
		// The view counter is best effort; a write failure must not block
		// playback.
		s.logger.Warn().Err(err).Uint("lesson_id", lessonID).Msg("lesson view not recorded")
	}

	return dto.NewLessonResponse(lesson, true), nil
}

// lessonUnlocked mirrors the access resolution order for bulk catalog
// rendering, where per-lesson lookups would be wasteful.
func lessonUnlocked(lesson models.Lesson, unlocks UnlockSet) bool {
	if unlocks.HasCourse(lesson.CourseID) || unlocks.HasLesson(lesson.ID) {
		return true
	}
	return decideByPricing(lesson).Granted
}
