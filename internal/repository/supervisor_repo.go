package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// SupervisorRepository defines persistence operations for supervisors.
type SupervisorRepository interface {
	List(ctx context.Context) ([]models.Supervisor, error)
	GetByID(ctx context.Context, id uint) (models.Supervisor, error)
	GetByPhone(ctx context.Context, phone string) (models.Supervisor, error)
	Create(ctx context.Context, supervisor *models.Supervisor) error
	Update(ctx context.Context, supervisor *models.Supervisor) error
	Delete(ctx context.Context, id uint) error
}

type supervisorRepository struct {
	db *gorm.DB
}

// NewSupervisorRepository instantiates a GORM-backed repository.
func NewSupervisorRepository(db *gorm.DB) SupervisorRepository {
	return &supervisorRepository{db: db}
}

func (r *supervisorRepository) List(ctx context.Context) ([]models.Supervisor, error) {
	var supervisors []models.Supervisor
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&supervisors).Error; err != nil {
		return nil, err
	}
	return supervisors, nil
}

func (r *supervisorRepository) GetByID(ctx context.Context, id uint) (models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.WithContext(ctx).First(&supervisor, id).Error; err != nil {
		return models.Supervisor{}, err
	}
	return supervisor, nil
}

func (r *supervisorRepository) GetByPhone(ctx context.Context, phone string) (models.Supervisor, error) {
	var supervisor models.Supervisor
	if err := r.db.WithContext(ctx).Where("phone = ?", phone).First(&supervisor).Error; err != nil {
		return models.Supervisor{}, err
	}
	return supervisor, nil
}

func (r *supervisorRepository) Create(ctx context.Context, supervisor *models.Supervisor) error {
	return r.db.WithContext(ctx).Create(supervisor).Error
}

func (r *supervisorRepository) Update(ctx context.Context, supervisor *models.Supervisor) error {
	return r.db.WithContext(ctx).Save(supervisor).Error
}

func (r *supervisorRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Supervisor{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
