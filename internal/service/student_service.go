package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// StudentService is the staff-facing student directory.
type StudentService interface {
	List(ctx context.Context, actor Principal) ([]dto.StudentSummaryResponse, error)
}

type studentService struct {
	students    repository.StudentRepository
	permissions PermissionService
	logger      zerolog.Logger
}

// NewStudentService builds the directory reader.
func NewStudentService(students repository.StudentRepository, permissions PermissionService, logger zerolog.Logger) StudentService {
	return &studentService{
		students:    students,
		permissions: permissions,
		logger:      logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) List(ctx context.Context, actor Principal) ([]dto.StudentSummaryResponse, error) {
	if err := s.permissions.AuthorizeAny(ctx, actor, models.CapStudentsRead, models.CapAlertsRead); err != nil {
		return nil, err
	}

	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.StudentSummaryResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, dto.NewStudentSummaryResponse(student))
	}
	return responses, nil
}
