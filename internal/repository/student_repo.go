package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// StudentRepository defines the read and credential operations the engine
// needs against learner identities.
type StudentRepository interface {
	List(ctx context.Context) ([]models.Student, error)
	ListIDsByGrade(ctx context.Context, grade string) ([]uint, error)
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByPhone(ctx context.Context, phone string) (models.Student, error)
	GetByEmail(ctx context.Context, email string) (models.Student, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates a GORM-backed repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) List(ctx context.Context) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) ListIDsByGrade(ctx context.Context, grade string) ([]uint, error) {
	query := r.db.WithContext(ctx).Model(&models.Student{})
	if trimmed := strings.TrimSpace(grade); trimmed != "" {
		query = query.Where("grade = ?", trimmed)
	}

	var ids []uint
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByPhone(ctx context.Context, phone string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&student).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&models.Student{}).Where("id = ?", id).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
