package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// ErrSupervisorNotFound indicates the supervisor does not exist.
var ErrSupervisorNotFound = errors.New("supervisor not found")

// ErrUnknownCapability indicates a capability string outside the closed set.
var ErrUnknownCapability = errors.New("unknown capability")

// SupervisorService manages supervisor accounts and their capability sets.
// Every mutation drops the permission cache so a capability change takes
// effect within one cache TTL at worst, immediately on this instance.
type SupervisorService interface {
	List(ctx context.Context, actor Principal) ([]dto.SupervisorResponse, error)
	Create(ctx context.Context, actor Principal, request dto.SupervisorCreateRequest) (dto.SupervisorResponse, error)
	Update(ctx context.Context, actor Principal, id uint, request dto.SupervisorUpdateRequest) (dto.SupervisorResponse, error)
	Delete(ctx context.Context, actor Principal, id uint) error
	Capabilities() []string
}

type supervisorService struct {
	supervisors repository.SupervisorRepository
	permissions PermissionService
	audit       AuditRecorder
	logger      zerolog.Logger
}

// NewSupervisorService builds the supervisor admin surface.
func NewSupervisorService(
	supervisors repository.SupervisorRepository,
	permissions PermissionService,
	audit AuditRecorder,
	logger zerolog.Logger,
) SupervisorService {
	return &supervisorService{
		supervisors: supervisors,
		permissions: permissions,
		audit:       audit,
		logger:      logger.With().Str("component", "supervisor_service").Logger(),
	}
}

func (s *supervisorService) List(ctx context.Context, actor Principal) ([]dto.SupervisorResponse, error) {
	if err := s.permissions.Authorize(ctx, actor, models.CapSupervisorsManage); err != nil {
		return nil, err
	}

	supervisors, err := s.supervisors.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SupervisorResponse, 0, len(supervisors))
	for _, supervisor := range supervisors {
		responses = append(responses, dto.NewSupervisorResponse(supervisor))
	}
	return responses, nil
}

func (s *supervisorService) Create(ctx context.Context, actor Principal, request dto.SupervisorCreateRequest) (dto.SupervisorResponse, error) {
	if err := s.permissions.Authorize(ctx, actor, models.CapSupervisorsManage); err != nil {
		return dto.SupervisorResponse{}, err
	}

	capabilities, err := encodeCapabilities(request.Capabilities)
	if err != nil {
		return dto.SupervisorResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.SupervisorResponse{}, err
	}

	supervisor := models.Supervisor{
		FullName:     request.FullName,
		Phone:        request.Phone,
		PasswordHash: string(hash),
		Capabilities: capabilities,
	}
	if err := s.supervisors.Create(ctx, &supervisor); err != nil {
		return dto.SupervisorResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "supervisor.create",
		TargetType: "supervisor",
		TargetID:   &supervisor.ID,
		Metadata:   map[string]interface{}{"capabilities": supervisor.CapabilitySet().Strings()},
	})
	s.logger.Info().Uint("supervisor_id", supervisor.ID).Msg("supervisor created")

	return dto.NewSupervisorResponse(supervisor), nil
}

func (s *supervisorService) Update(ctx context.Context, actor Principal, id uint, request dto.SupervisorUpdateRequest) (dto.SupervisorResponse, error) {
	if err := s.permissions.Authorize(ctx, actor, models.CapSupervisorsManage); err != nil {
		return dto.SupervisorResponse{}, err
	}

	supervisor, err := s.supervisors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SupervisorResponse{}, ErrSupervisorNotFound
		}
		return dto.SupervisorResponse{}, err
	}

	if request.FullName != nil {
		supervisor.FullName = *request.FullName
	}
	if request.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*request.Password), bcrypt.DefaultCost)
		if err != nil {
			return dto.SupervisorResponse{}, err
		}
		supervisor.PasswordHash = string(hash)
	}
	if request.Capabilities != nil {
		capabilities, err := encodeCapabilities(*request.Capabilities)
		if err != nil {
			return dto.SupervisorResponse{}, err
		}
		supervisor.Capabilities = capabilities
	}

	if err := s.supervisors.Update(ctx, &supervisor); err != nil {
		return dto.SupervisorResponse{}, err
	}
	s.permissions.Invalidate(ctx, supervisor.ID)

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "supervisor.update",
		TargetType: "supervisor",
		TargetID:   &supervisor.ID,
		Metadata:   map[string]interface{}{"capabilities": supervisor.CapabilitySet().Strings()},
	})

	return dto.NewSupervisorResponse(supervisor), nil
}

func (s *supervisorService) Delete(ctx context.Context, actor Principal, id uint) error {
	if err := s.permissions.Authorize(ctx, actor, models.CapSupervisorsManage); err != nil {
		return err
	}

	if err := s.supervisors.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSupervisorNotFound
		}
		return err
	}
	s.permissions.Invalidate(ctx, id)

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "supervisor.delete",
		TargetType: "supervisor",
		TargetID:   &id,
	})
	s.logger.Info().Uint("supervisor_id", id).Msg("supervisor deleted")
	return nil
}

func (s *supervisorService) Capabilities() []string {
	all := models.AllCapabilities()
	values := make([]string, 0, len(all))
	for _, capability := range all {
		values = append(values, string(capability))
	}
	return values
}

// encodeCapabilities validates against the closed set and serializes for
// persistence. Unknown names are rejected at write time even though the
// resolver would silently drop them.
func encodeCapabilities(values []string) (datatypes.JSON, error) {
	for _, value := range values {
		if !models.IsKnownCapability(value) {
			return nil, ErrUnknownCapability
		}
	}
	if values == nil {
		values = []string{}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(payload), nil
}
