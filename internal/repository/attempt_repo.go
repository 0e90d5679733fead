package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// ErrAttemptCeiling indicates the attempt limit was reached when the insert
// transaction recounted prior attempts.
var ErrAttemptCeiling = errors.New("attempt ceiling reached")

// AttemptRepository persists attempts and their per-question answers.
// Attempts are immutable once written; there is deliberately no delete or
// update path.
type AttemptRepository interface {
	Count(ctx context.Context, studentID, assessmentID uint) (int64, error)
	First(ctx context.Context, studentID, assessmentID uint) (models.Attempt, error)
	ListByStudent(ctx context.Context, studentID uint) ([]models.Attempt, error)
	ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Attempt, error)
	// Record inserts the attempt and answers atomically, recounting prior
	// attempts against the ceiling inside the same transaction. It returns
	// the pre-existing first attempt, if any, observed before the insert.
	Record(ctx context.Context, attempt *models.Attempt, answers []models.AttemptAnswer, ceiling int) (*models.Attempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository instantiates a GORM-backed repository.
func NewAttemptRepository(db *gorm.DB) AttemptRepository {
	return &attemptRepository{db: db}
}

func (r *attemptRepository) Count(ctx context.Context, studentID, assessmentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Attempt{}).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Count(&count).Error
	return count, err
}

func (r *attemptRepository) First(ctx context.Context, studentID, assessmentID uint) (models.Attempt, error) {
	var attempt models.Attempt
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND assessment_id = ?", studentID, assessmentID).
		Order("id ASC").
		First(&attempt).Error
	if err != nil {
		return models.Attempt{}, err
	}
	return attempt, nil
}

func (r *attemptRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := r.db.WithContext(ctx).Preload("Answers").
		Where("student_id = ?", studentID).
		Order("id DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) ListByAssessment(ctx context.Context, assessmentID uint) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := r.db.WithContext(ctx).Preload("Answers").
		Where("assessment_id = ?", assessmentID).
		Order("id DESC").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepository) Record(ctx context.Context, attempt *models.Attempt, answers []models.AttemptAnswer, ceiling int) (*models.Attempt, error) {
	if ceiling < 1 {
		ceiling = 1
	}

	var prior *models.Attempt
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := lockForUpdate(tx.Model(&models.Attempt{})).
			Where("student_id = ? AND assessment_id = ?", attempt.StudentID, attempt.AssessmentID).
			Count(&count).Error; err != nil {
			return err
		}
		if count >= int64(ceiling) {
			return ErrAttemptCeiling
		}

		if count > 0 {
			var first models.Attempt
			if err := tx.
				Where("student_id = ? AND assessment_id = ?", attempt.StudentID, attempt.AssessmentID).
				Order("id ASC").
				First(&first).Error; err != nil {
				return err
			}
			prior = &first
		}

		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		if len(answers) == 0 {
			return nil
		}
		for i := range answers {
			answers[i].AttemptID = attempt.ID
		}
		return tx.Create(&answers).Error
	})
	if err != nil {
		return nil, err
	}
	return prior, nil
}
