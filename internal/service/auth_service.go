package service

import (
	"context"
	"crypto/subtle"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// ErrInvalidCredentials covers every password-login failure. The caller never
// learns whether the phone or the password was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService authenticates students and staff with phone/password
// credentials. The owner is a single principal configured at boot and never
// stored in the database.
type AuthService interface {
	StudentLogin(ctx context.Context, phone, password string) (dto.SessionResponse, error)
	StaffLogin(ctx context.Context, phone, password string) (dto.SessionResponse, error)
}

type authService struct {
	students      repository.StudentRepository
	supervisors   repository.SupervisorRepository
	tokens        *TokenIssuer
	ownerPhone    string
	ownerPassword string
	logger        zerolog.Logger
}

// NewAuthService builds the credential authenticator. ownerPhone and
// ownerPassword come from configuration; empty values disable owner login.
func NewAuthService(
	students repository.StudentRepository,
	supervisors repository.SupervisorRepository,
	tokens *TokenIssuer,
	ownerPhone, ownerPassword string,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		students:      students,
		supervisors:   supervisors,
		tokens:        tokens,
		ownerPhone:    ownerPhone,
		ownerPassword: ownerPassword,
		logger:        logger.With().Str("component", "auth_service").Logger(),
	}
}

func (s *authService) StudentLogin(ctx context.Context, phone, password string) (dto.SessionResponse, error) {
	student, err := s.students.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrInvalidCredentials
		}
		return dto.SessionResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(student.PasswordHash), []byte(password)) != nil {
		return dto.SessionResponse{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Session(RoleStudent, student.ID, student.Phone)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Msg("student logged in")
	return dto.SessionResponse{Token: token, Role: RoleStudent}, nil
}

func (s *authService) StaffLogin(ctx context.Context, phone, password string) (dto.SessionResponse, error) {
	if s.isOwner(phone, password) {
		token, err := s.tokens.Session(RoleOwner, 0, phone)
		if err != nil {
			return dto.SessionResponse{}, err
		}
		s.logger.Info().Msg("owner logged in")
		return dto.SessionResponse{Token: token, Role: RoleOwner}, nil
	}

	supervisor, err := s.supervisors.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrInvalidCredentials
		}
		return dto.SessionResponse{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(supervisor.PasswordHash), []byte(password)) != nil {
		return dto.SessionResponse{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Session(RoleSupervisor, supervisor.ID, supervisor.Phone)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	s.logger.Info().Uint("supervisor_id", supervisor.ID).Msg("supervisor logged in")
	return dto.SessionResponse{Token: token, Role: RoleSupervisor}, nil
}

func (s *authService) isOwner(phone, password string) bool {
	if s.ownerPhone == "" || s.ownerPassword == "" {
		return false
	}
	phoneMatch := subtle.ConstantTimeCompare([]byte(s.ownerPhone), []byte(phone))
	passwordMatch := subtle.ConstantTimeCompare([]byte(s.ownerPassword), []byte(password))
	return phoneMatch&passwordMatch == 1
}
