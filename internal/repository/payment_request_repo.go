package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

// ErrRequestNotPending indicates an approval targeted a request that already
// left the pending state.
var ErrRequestNotPending = errors.New("payment request is not pending")

// ErrRequestExpired indicates the request's deadline elapsed before approval;
// the expiry transition has been persisted.
var ErrRequestExpired = errors.New("payment request has expired")

// PaymentRequestRepository owns the ledger's state machine. Creation and
// approval run inside transactions so the single-pending invariant and the
// entitlement-plus-status atomicity hold under concurrent requests.
type PaymentRequestRepository interface {
	GetByID(ctx context.Context, id uint) (models.PaymentRequest, error)
	// CreateOrReusePending lazily expires the caller's stale requests for the
	// target, then either returns the surviving pending request (reused=true)
	// or inserts the provided one.
	CreateOrReusePending(ctx context.Context, request *models.PaymentRequest, now time.Time) (models.PaymentRequest, bool, error)
	// Approve grants the entitlement and flips the request to approved in one
	// transaction. An elapsed deadline is persisted as expired and reported
	// via ErrRequestExpired.
	Approve(ctx context.Context, id uint, now time.Time) (models.PaymentRequest, error)
	ListPending(ctx context.Context, now time.Time) ([]models.PaymentRequest, error)
}

type paymentRequestRepository struct {
	db *gorm.DB
}

// NewPaymentRequestRepository instantiates a GORM-backed repository.
func NewPaymentRequestRepository(db *gorm.DB) PaymentRequestRepository {
	return &paymentRequestRepository{db: db}
}

func (r *paymentRequestRepository) GetByID(ctx context.Context, id uint) (models.PaymentRequest, error) {
	var request models.PaymentRequest
	if err := r.db.WithContext(ctx).Preload("Student").First(&request, id).Error; err != nil {
		return models.PaymentRequest{}, err
	}
	return request, nil
}

func (r *paymentRequestRepository) CreateOrReusePending(ctx context.Context, request *models.PaymentRequest, now time.Time) (models.PaymentRequest, bool, error) {
	// The expiry transition is committed separately so the bookkeeping
	// survives even when the outer operation fails afterwards.
	if err := r.expireStale(ctx, request.StudentID, request.Kind, request.TargetID, now); err != nil {
		return models.PaymentRequest{}, false, err
	}

	var existing models.PaymentRequest
	reused := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := lockForUpdate(tx).
			Where("student_id = ? AND kind = ? AND target_id = ? AND status = ? AND expires_at > ?",
				request.StudentID, request.Kind, request.TargetID, models.PaymentStatusPending, now).
			Order("id DESC").
			First(&existing).Error
		if err == nil {
			reused = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(request).Error
	})
	if err != nil {
		return models.PaymentRequest{}, false, err
	}
	if reused {
		return existing, true, nil
	}
	return *request, false, nil
}

func (r *paymentRequestRepository) Approve(ctx context.Context, id uint, now time.Time) (models.PaymentRequest, error) {
	var approved models.PaymentRequest
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var request models.PaymentRequest
		if err := lockForUpdate(tx).First(&request, id).Error; err != nil {
			return err
		}
		if request.Status != models.PaymentStatusPending {
			return ErrRequestNotPending
		}
		if request.Expired(now) {
			return ErrRequestExpired
		}

		entitlement := models.Entitlement{
			StudentID: request.StudentID,
			Kind:      request.Kind,
			TargetID:  request.TargetID,
			GrantedAt: now,
		}
		if err := grantEntitlement(tx, &entitlement); err != nil {
			return err
		}

		if err := tx.Model(&models.PaymentRequest{}).Where("id = ?", request.ID).
			Updates(map[string]interface{}{
				"status":     models.PaymentStatusApproved,
				"decided_at": now,
			}).Error; err != nil {
			return err
		}

		request.Status = models.PaymentStatusApproved
		request.DecidedAt = &now
		approved = request
		return nil
	})
	if err != nil && !errors.Is(err, ErrRequestExpired) {
		return models.PaymentRequest{}, err
	}
	if errors.Is(err, ErrRequestExpired) {
		// Expiry bookkeeping is persisted regardless of the failed approval.
		if updateErr := r.db.WithContext(ctx).Model(&models.PaymentRequest{}).
			Where("id = ? AND status = ?", id, models.PaymentStatusPending).
			Updates(map[string]interface{}{
				"status":     models.PaymentStatusExpired,
				"decided_at": now,
			}).Error; updateErr != nil {
			return models.PaymentRequest{}, updateErr
		}
		return models.PaymentRequest{}, ErrRequestExpired
	}
	return approved, nil
}

func (r *paymentRequestRepository) ListPending(ctx context.Context, now time.Time) ([]models.PaymentRequest, error) {
	if err := r.db.WithContext(ctx).Model(&models.PaymentRequest{}).
		Where("status = ? AND expires_at <= ?", models.PaymentStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.PaymentStatusExpired,
			"decided_at": now,
		}).Error; err != nil {
		return nil, err
	}

	var requests []models.PaymentRequest
	if err := r.db.WithContext(ctx).Preload("Student").
		Where("status = ?", models.PaymentStatusPending).
		Order("id DESC").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *paymentRequestRepository) expireStale(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint, now time.Time) error {
	return r.db.WithContext(ctx).Model(&models.PaymentRequest{}).
		Where("student_id = ? AND kind = ? AND target_id = ? AND status = ? AND expires_at <= ?",
			studentID, kind, targetID, models.PaymentStatusPending, now).
		Updates(map[string]interface{}{
			"status":     models.PaymentStatusExpired,
			"decided_at": now,
		}).Error
}
