package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// AuditEntry captures the details of one auditable action.
type AuditEntry struct {
	Actor      Principal
	Action     string
	TargetType string
	TargetID   *uint
	Metadata   map[string]interface{}
}

// AuditRecorder is the best-effort audit sink consumed by the engine.
// Recording failures are logged and swallowed; they never roll back the
// triggering operation.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// AuditService exposes the recorder plus the staff-facing listing.
type AuditService interface {
	AuditRecorder
	List(ctx context.Context, req dto.AuditListRequest) ([]dto.AuditEntryResponse, error)
}

type auditService struct {
	repo   repository.AuditLogRepository
	logger zerolog.Logger
}

// NewAuditService constructs the audit trail service.
func NewAuditService(repo repository.AuditLogRepository, logger zerolog.Logger) AuditService {
	return &auditService{
		repo:   repo,
		logger: logger.With().Str("component", "audit_service").Logger(),
	}
}

func (s *auditService) Record(ctx context.Context, entry AuditEntry) {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		return
	}

	var actorID *uint
	if entry.Actor.Role == RoleSupervisor || entry.Actor.Role == RoleStudent {
		id := entry.Actor.ID
		actorID = &id
	}

	model := models.AuditLog{
		ActorRole:  entry.Actor.Role,
		ActorID:    actorID,
		Action:     action,
		TargetType: strings.TrimSpace(entry.TargetType),
		TargetID:   entry.TargetID,
		Metadata:   datatypes.JSONMap(entry.Metadata),
	}
	if err := s.repo.Create(ctx, &model); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to persist audit entry")
	}
}

func (s *auditService) List(ctx context.Context, req dto.AuditListRequest) ([]dto.AuditEntryResponse, error) {
	entries, err := s.repo.List(ctx, repository.AuditLogFilter{Action: req.Action, Limit: req.Limit})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.AuditEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, dto.NewAuditEntryResponse(entry))
	}
	return responses, nil
}
