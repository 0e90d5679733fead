package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// ContentRepository exposes the read-only course/lesson surface the engine
// consumes, plus the lesson view upsert.
type ContentRepository interface {
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id uint) (models.Course, error)
	ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error)
	GetLesson(ctx context.Context, id uint) (models.Lesson, error)
	RecordLessonView(ctx context.Context, studentID, lessonID uint, viewedAt time.Time) error
}

type contentRepository struct {
	db *gorm.DB
}

// NewContentRepository instantiates a GORM-backed repository.
func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) ListCourses(ctx context.Context) ([]models.Course, error) {
	var courses []models.Course
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *contentRepository) GetCourse(ctx context.Context, id uint) (models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).First(&course, id).Error; err != nil {
		return models.Course{}, err
	}
	return course, nil
}

func (r *contentRepository) ListLessons(ctx context.Context, courseID uint) ([]models.Lesson, error) {
	var lessons []models.Lesson
	if err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("position ASC, id ASC").
		Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *contentRepository) GetLesson(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).Preload("Course").First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *contentRepository) RecordLessonView(ctx context.Context, studentID, lessonID uint, viewedAt time.Time) error {
	view := models.LessonView{
		StudentID:    studentID,
		LessonID:     lessonID,
		LastViewedAt: viewedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_viewed_at": viewedAt}),
	}).Create(&view).Error
}
