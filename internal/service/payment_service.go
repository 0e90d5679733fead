package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/observability"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// ErrPaymentRequestNotFound indicates the ledger entry does not exist.
var ErrPaymentRequestNotFound = errors.New("payment request not found")

// ErrPaymentNotPending indicates an approval against an already decided
// request.
var ErrPaymentNotPending = errors.New("payment request already decided")

// ErrPaymentExpired indicates the request's deadline elapsed before approval.
var ErrPaymentExpired = errors.New("payment request expired")

// ErrLessonNotPurchasable indicates a lesson that can only be unlocked
// through its course.
var ErrLessonNotPurchasable = errors.New("lesson is not individually purchasable")

// ErrInvalidContentKind indicates a subscribe call outside the closed kind set.
var ErrInvalidContentKind = errors.New("invalid content kind")

// PaymentService manages the lifecycle of payment requests from creation
// through approval or expiry. Approval is the single write path that converts
// money into access.
type PaymentService interface {
	Subscribe(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) (dto.SubscribeResponse, error)
	Approve(ctx context.Context, actor Principal, requestID uint) (dto.PaymentRequestResponse, error)
	ListPending(ctx context.Context, actor Principal) ([]dto.PaymentRequestResponse, error)
}

type paymentService struct {
	requests     repository.PaymentRequestRepository
	content      repository.ContentRepository
	entitlements EntitlementService
	permissions  PermissionService
	notifier     NotificationService
	audit        AuditRecorder
	window       time.Duration
	logger       zerolog.Logger
	now          func() time.Time
	refSuffix    func() int
}

// NewPaymentService builds the ledger with the configured pending window.
func NewPaymentService(
	requests repository.PaymentRequestRepository,
	content repository.ContentRepository,
	entitlements EntitlementService,
	permissions PermissionService,
	notifier NotificationService,
	audit AuditRecorder,
	window time.Duration,
	logger zerolog.Logger,
) PaymentService {
	if window <= 0 {
		window = 8 * time.Hour
	}
	return &paymentService{
		requests:     requests,
		content:      content,
		entitlements: entitlements,
		permissions:  permissions,
		notifier:     notifier,
		audit:        audit,
		window:       window,
		logger:       logger.With().Str("component", "payment_service").Logger(),
		now:          time.Now,
		refSuffix:    func() int { return rand.Intn(1_000_000) },
	}
}

func (s *paymentService) Subscribe(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint) (dto.SubscribeResponse, error) {
	switch kind {
	case models.KindCourse:
		return s.subscribeCourse(ctx, studentID, targetID)
	case models.KindLesson:
		return s.subscribeLesson(ctx, studentID, targetID)
	default:
		return dto.SubscribeResponse{}, ErrInvalidContentKind
	}
}

func (s *paymentService) subscribeCourse(ctx context.Context, studentID, courseID uint) (dto.SubscribeResponse, error) {
	course, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubscribeResponse{}, ErrCourseNotFound
		}
		return dto.SubscribeResponse{}, err
	}

	entitled, err := s.entitlements.HasEntitlement(ctx, studentID, models.KindCourse, courseID)
	if err != nil {
		return dto.SubscribeResponse{}, err
	}
	if entitled {
		return dto.SubscribeResponse{Status: dto.SubscribeStatusAlreadyGranted}, nil
	}

	if course.IsFree() {
		if err := s.entitlements.Grant(ctx, studentID, models.KindCourse, courseID); err != nil {
			return dto.SubscribeResponse{}, err
		}
		s.audit.Record(ctx, AuditEntry{
			Actor:      Principal{Role: RoleStudent, ID: studentID},
			Action:     "subscribe.course.free",
			TargetType: "course",
			TargetID:   &courseID,
		})
		return dto.SubscribeResponse{Status: dto.SubscribeStatusGranted}, nil
	}

	return s.createOrReuse(ctx, studentID, models.KindCourse, courseID, course.PriceCents)
}

func (s *paymentService) subscribeLesson(ctx context.Context, studentID, lessonID uint) (dto.SubscribeResponse, error) {
	lesson, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubscribeResponse{}, ErrLessonNotFound
		}
		return dto.SubscribeResponse{}, err
	}

	entitled, err := s.entitlements.HasEntitlement(ctx, studentID, models.KindLesson, lessonID)
	if err != nil {
		return dto.SubscribeResponse{}, err
	}
	if !entitled {
		entitled, err = s.entitlements.HasEntitlement(ctx, studentID, models.KindCourse, lesson.CourseID)
		if err != nil {
			return dto.SubscribeResponse{}, err
		}
	}
	if entitled {
		return dto.SubscribeResponse{Status: dto.SubscribeStatusAlreadyGranted}, nil
	}

	if !lesson.IsIndividual {
		return dto.SubscribeResponse{}, ErrLessonNotPurchasable
	}

	if lesson.Course.IsFree() || lesson.IndividualPriceCents <= 0 {
		if err := s.entitlements.Grant(ctx, studentID, models.KindLesson, lessonID); err != nil {
			return dto.SubscribeResponse{}, err
		}
		s.audit.Record(ctx, AuditEntry{
			Actor:      Principal{Role: RoleStudent, ID: studentID},
			Action:     "subscribe.lesson.free",
			TargetType: "lesson",
			TargetID:   &lessonID,
		})
		return dto.SubscribeResponse{Status: dto.SubscribeStatusGranted}, nil
	}

	return s.createOrReuse(ctx, studentID, models.KindLesson, lessonID, lesson.IndividualPriceCents)
}

func (s *paymentService) createOrReuse(ctx context.Context, studentID uint, kind models.ContentKind, targetID uint, amountCents int64) (dto.SubscribeResponse, error) {
	now := s.now()
	request := models.PaymentRequest{
		StudentID:   studentID,
		Kind:        kind,
		TargetID:    targetID,
		AmountCents: amountCents,
		Status:      models.PaymentStatusPending,
		Reference:   s.mintReference(kind, now),
		ExpiresAt:   now.Add(s.window),
	}

	stored, reused, err := s.requests.CreateOrReusePending(ctx, &request, now)
	if err != nil {
		return dto.SubscribeResponse{}, err
	}

	status := dto.SubscribeStatusCreated
	if reused {
		status = dto.SubscribeStatusReused
	} else {
		s.audit.Record(ctx, AuditEntry{
			Actor:      Principal{Role: RoleStudent, ID: studentID},
			Action:     fmt.Sprintf("subscribe.%s.pending", kind),
			TargetType: string(kind),
			TargetID:   &targetID,
			Metadata:   map[string]interface{}{"reference": stored.Reference, "amount_cents": amountCents},
		})
	}

	expiresAt := stored.ExpiresAt
	return dto.SubscribeResponse{
		Status:      status,
		Reference:   stored.Reference,
		AmountCents: stored.AmountCents,
		ExpiresAt:   &expiresAt,
	}, nil
}

func (s *paymentService) Approve(ctx context.Context, actor Principal, requestID uint) (dto.PaymentRequestResponse, error) {
	tracer := otel.Tracer("github.com/darsy-edu/darsy-api/internal/service/payment")
	ctx, span := tracer.Start(ctx, "payment.approve")
	span.SetAttributes(
		attribute.Int64("payment.request_id", int64(requestID)),
		attribute.String("payment.actor_role", actor.Role),
	)
	defer span.End()

	if err := s.permissions.Authorize(ctx, actor, models.CapPaymentsApprove); err != nil {
		span.SetStatus(codes.Error, "authorization_failed")
		return dto.PaymentRequestResponse{}, err
	}

	approved, err := s.requests.Approve(ctx, requestID, s.now())
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			span.SetStatus(codes.Error, "request_not_found")
			return dto.PaymentRequestResponse{}, ErrPaymentRequestNotFound
		case errors.Is(err, repository.ErrRequestNotPending):
			span.SetStatus(codes.Error, "request_not_pending")
			return dto.PaymentRequestResponse{}, ErrPaymentNotPending
		case errors.Is(err, repository.ErrRequestExpired):
			span.SetStatus(codes.Error, "request_expired")
			return dto.PaymentRequestResponse{}, ErrPaymentExpired
		default:
			span.SetStatus(codes.Error, "approval_failed")
			return dto.PaymentRequestResponse{}, err
		}
	}

	observability.PaymentApprovals().WithLabelValues(string(approved.Kind)).Inc()
	s.notifier.Notify(ctx, approved.StudentID, s.activationMessage(ctx, approved))
	requestIDCopy := approved.ID
	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     fmt.Sprintf("payment.approve.%s", approved.Kind),
		TargetType: "payment_request",
		TargetID:   &requestIDCopy,
		Metadata: map[string]interface{}{
			"student_id": approved.StudentID,
			"target_id":  approved.TargetID,
			"reference":  approved.Reference,
		},
	})

	s.logger.Info().
		Uint("request_id", approved.ID).
		Uint("student_id", approved.StudentID).
		Str("kind", string(approved.Kind)).
		Msg("payment request approved")

	return dto.NewPaymentRequestResponse(approved), nil
}

func (s *paymentService) ListPending(ctx context.Context, actor Principal) ([]dto.PaymentRequestResponse, error) {
	if err := s.permissions.Authorize(ctx, actor, models.CapPaymentsRead); err != nil {
		return nil, err
	}

	pending, err := s.requests.ListPending(ctx, s.now())
	if err != nil {
		return nil, err
	}
	return dto.NewPaymentRequestResponseSlice(pending), nil
}

// mintReference builds a human-copyable, globally unique reference string,
// e.g. FW-C-1736414400123-042217.
func (s *paymentService) mintReference(kind models.ContentKind, now time.Time) string {
	prefix := "FW-C"
	if kind == models.KindLesson {
		prefix = "FW-L"
	}
	return fmt.Sprintf("%s-%d-%06d", prefix, now.UnixMilli(), s.refSuffix())
}

func (s *paymentService) activationMessage(ctx context.Context, request models.PaymentRequest) string {
	title := ""
	switch request.Kind {
	case models.KindCourse:
		if course, err := s.content.GetCourse(ctx, request.TargetID); err == nil {
			title = course.Title
		}
		return fmt.Sprintf("Your course subscription is now active: %s", title)
	default:
		if lesson, err := s.content.GetLesson(ctx, request.TargetID); err == nil {
			title = lesson.Title
		}
		return fmt.Sprintf("Your lesson subscription is now active: %s", title)
	}
}
