package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// EntitlementRepository persists durable access grants. Grants are idempotent
// against the (student, kind, target) uniqueness constraint.
type EntitlementRepository interface {
	ListByStudent(ctx context.Context, studentID uint) ([]models.Entitlement, error)
	Exists(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) (bool, error)
	Grant(ctx context.Context, entitlement *models.Entitlement) error
}

type entitlementRepository struct {
	db *gorm.DB
}

// NewEntitlementRepository instantiates a GORM-backed repository.
func NewEntitlementRepository(db *gorm.DB) EntitlementRepository {
	return &entitlementRepository{db: db}
}

func (r *entitlementRepository) ListByStudent(ctx context.Context, studentID uint) ([]models.Entitlement, error) {
	var entitlements []models.Entitlement
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&entitlements).Error; err != nil {
		return nil, err
	}
	return entitlements, nil
}

func (r *entitlementRepository) Exists(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Entitlement{}).
		Where("student_id = ? AND kind = ? AND target_id = ?", studentID, kind, targetID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *entitlementRepository) Grant(ctx context.Context, entitlement *models.Entitlement) error {
	return grantEntitlement(r.db.WithContext(ctx), entitlement)
}

// grantEntitlement inserts an entitlement, treating a pre-existing row for the
// same identity as success. Shared with the payment approval transaction.
func grantEntitlement(tx *gorm.DB, entitlement *models.Entitlement) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "student_id"}, {Name: "kind"}, {Name: "target_id"},
		},
		DoNothing: true,
	}).Create(entitlement).Error
}
