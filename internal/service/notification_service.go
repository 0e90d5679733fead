package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

const notificationChannel = "notifications.student"

// ErrNotificationNotFound indicates the notification does not exist or does
// not belong to the caller.
var ErrNotificationNotFound = errors.New("notification not found")

// ErrEmptyBroadcast indicates a broadcast whose message sanitized to nothing.
var ErrEmptyBroadcast = errors.New("broadcast message is empty")

// NotificationService is the learner-visible message sink. Notify is
// fire-and-forget: failures are logged and never fail the caller.
type NotificationService interface {
	Notify(ctx context.Context, studentID uint, message string)
	Broadcast(ctx context.Context, actor Principal, payload dto.BroadcastRequest) (dto.BroadcastResponse, error)
	List(ctx context.Context, studentID uint, limit int, unreadOnly bool) ([]dto.NotificationResponse, error)
	MarkRead(ctx context.Context, id, studentID uint) (dto.NotificationResponse, error)
}

type notificationService struct {
	repo      repository.NotificationRepository
	students  repository.StudentRepository
	redis     *redis.Client
	nats      *nats.Conn
	sanitizer *bluemonday.Policy
	audit     AuditRecorder
	logger    zerolog.Logger
	now       func() time.Time
}

type notificationEvent struct {
	StudentID uint      `json:"student_id"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sent_at"`
}

// NewNotificationService builds the notification sink. The redis and nats
// clients are optional; when present, persisted notifications are also
// published for connected frontends.
func NewNotificationService(repo repository.NotificationRepository, students repository.StudentRepository, redisClient *redis.Client, natsConn *nats.Conn, audit AuditRecorder, logger zerolog.Logger) NotificationService {
	return &notificationService{
		repo:      repo,
		students:  students,
		redis:     redisClient,
		nats:      natsConn,
		sanitizer: bluemonday.StrictPolicy(),
		audit:     audit,
		logger:    logger.With().Str("component", "notification_service").Logger(),
		now:       time.Now,
	}
}

func (s *notificationService) Notify(ctx context.Context, studentID uint, message string) {
	message = strings.TrimSpace(message)
	if studentID == 0 || message == "" {
		return
	}

	notification := models.Notification{StudentID: studentID, Message: message}
	if err := s.repo.Create(ctx, &notification); err != nil {
		s.logger.Warn().Err(err).Uint("student_id", studentID).Msg("failed to persist notification")
		return
	}

	s.publish(ctx, notificationEvent{StudentID: studentID, Message: message, SentAt: s.now()})
}

func (s *notificationService) Broadcast(ctx context.Context, actor Principal, payload dto.BroadcastRequest) (dto.BroadcastResponse, error) {
	message := strings.TrimSpace(s.sanitizer.Sanitize(payload.Message))
	if message == "" {
		return dto.BroadcastResponse{}, ErrEmptyBroadcast
	}

	studentIDs, err := s.students.ListIDsByGrade(ctx, payload.Grade)
	if err != nil {
		return dto.BroadcastResponse{}, err
	}

	notifications := make([]models.Notification, 0, len(studentIDs))
	for _, studentID := range studentIDs {
		notifications = append(notifications, models.Notification{StudentID: studentID, Message: message})
	}
	if err := s.repo.CreateBatch(ctx, notifications); err != nil {
		return dto.BroadcastResponse{}, err
	}

	sentAt := s.now()
	for _, studentID := range studentIDs {
		s.publish(ctx, notificationEvent{StudentID: studentID, Message: message, SentAt: sentAt})
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "notifications.broadcast",
		TargetType: "notification",
		Metadata:   map[string]interface{}{"recipients": len(studentIDs), "grade": payload.Grade},
	})

	s.logger.Info().Int("recipients", len(studentIDs)).Msg("broadcast delivered")
	return dto.BroadcastResponse{Recipients: len(studentIDs)}, nil
}

func (s *notificationService) List(ctx context.Context, studentID uint, limit int, unreadOnly bool) ([]dto.NotificationResponse, error) {
	notifications, err := s.repo.ListByStudent(ctx, studentID, limit, unreadOnly)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, dto.NewNotificationResponse(notification))
	}
	return responses, nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, studentID uint) (dto.NotificationResponse, error) {
	readAt := s.now()
	if err := s.repo.MarkRead(ctx, id, studentID, readAt); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, err
	}

	return dto.NotificationResponse{ID: id, StudentID: studentID, ReadAt: &readAt}, nil
}

// publish fans the event out to optional transports; both are best-effort.
func (s *notificationService) publish(ctx context.Context, event notificationEvent) {
	if s.redis == nil && s.nats == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return
	}
	if s.redis != nil {
		if err := s.redis.Publish(ctx, notificationChannel, payload).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to redis")
		}
	}
	if s.nats != nil {
		if err := s.nats.Publish(notificationChannel, payload); err != nil {
			s.logger.Warn().Err(err).Msg("failed to publish notification to nats")
		}
	}
}
