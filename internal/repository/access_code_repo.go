package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// AccessCodeRepository persists one-time login codes. Issue displaces any
// prior unused code in the same transaction so a reader never observes two
// active codes for one student.
type AccessCodeRepository interface {
	Issue(ctx context.Context, code *models.AccessCode, now time.Time) error
	InvalidateActive(ctx context.Context, studentID uint, now time.Time) (int64, error)
	LatestUnused(ctx context.Context, studentID uint) (models.AccessCode, error)
	// Consume marks a code used exactly once; the boolean reports whether
	// this caller won the write.
	Consume(ctx context.Context, id uint, now time.Time) (bool, error)
}

type accessCodeRepository struct {
	db *gorm.DB
}

// NewAccessCodeRepository instantiates a GORM-backed repository.
func NewAccessCodeRepository(db *gorm.DB) AccessCodeRepository {
	return &accessCodeRepository{db: db}
}

func (r *accessCodeRepository) Issue(ctx context.Context, code *models.AccessCode, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AccessCode{}).
			Where("student_id = ? AND used_at IS NULL", code.StudentID).
			Update("used_at", now).Error; err != nil {
			return err
		}
		return tx.Create(code).Error
	})
}

func (r *accessCodeRepository) InvalidateActive(ctx context.Context, studentID uint, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.AccessCode{}).
		Where("student_id = ? AND used_at IS NULL AND expires_at > ?", studentID, now).
		Update("used_at", now)
	return result.RowsAffected, result.Error
}

func (r *accessCodeRepository) LatestUnused(ctx context.Context, studentID uint) (models.AccessCode, error) {
	var code models.AccessCode
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND used_at IS NULL", studentID).
		Order("id DESC").
		First(&code).Error
	if err != nil {
		return models.AccessCode{}, err
	}
	return code, nil
}

func (r *accessCodeRepository) Consume(ctx context.Context, id uint, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.AccessCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}
