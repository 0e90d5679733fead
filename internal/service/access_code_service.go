package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/observability"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

// ErrStudentNotFound indicates the targeted student record does not exist.
var ErrStudentNotFound = errors.New("student not found")

// ErrNoActiveCode indicates a redemption attempt with no live code on file.
var ErrNoActiveCode = errors.New("no active access code")

// ErrCodeMismatch indicates the presented digits do not match the live code.
var ErrCodeMismatch = errors.New("access code mismatch")

// ErrCodeExpired indicates the live code's validity window elapsed.
var ErrCodeExpired = errors.New("access code expired")

// ErrCodeUsed indicates the code was already redeemed, possibly by a
// concurrent request that won the consume race.
var ErrCodeUsed = errors.New("access code already used")

// ErrResetIdentityMismatch indicates the phone/email pair does not identify
// a single student account.
var ErrResetIdentityMismatch = errors.New("phone and email do not match")

// AccessCodeService issues, revokes, and redeems one-time login codes.
// A student holds at most one live code; issuing displaces the predecessor.
type AccessCodeService interface {
	Issue(ctx context.Context, actor Principal, studentID uint) (dto.IssueCodeResponse, error)
	Revoke(ctx context.Context, actor Principal, studentID uint) (int64, error)
	Redeem(ctx context.Context, phone, code string) (dto.SessionResponse, error)
	RequestResetCode(ctx context.Context, phone, email string) (dto.ResetCodeResponse, error)
	ChangePassword(ctx context.Context, studentID uint, newPassword string) error
}

type accessCodeService struct {
	codes       repository.AccessCodeRepository
	students    repository.StudentRepository
	permissions PermissionService
	tokens      *TokenIssuer
	audit       AuditRecorder
	ttl         time.Duration
	logger      zerolog.Logger
	now         func() time.Time
	genCode     func() string
}

// NewAccessCodeService builds the issuer with the configured code lifetime.
func NewAccessCodeService(
	codes repository.AccessCodeRepository,
	students repository.StudentRepository,
	permissions PermissionService,
	tokens *TokenIssuer,
	audit AuditRecorder,
	ttl time.Duration,
	logger zerolog.Logger,
) AccessCodeService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &accessCodeService{
		codes:       codes,
		students:    students,
		permissions: permissions,
		tokens:      tokens,
		audit:       audit,
		ttl:         ttl,
		logger:      logger.With().Str("component", "access_code_service").Logger(),
		now:         time.Now,
		genCode:     func() string { return fmt.Sprintf("%06d", rand.Intn(1_000_000)) },
	}
}

func (s *accessCodeService) Issue(ctx context.Context, actor Principal, studentID uint) (dto.IssueCodeResponse, error) {
	if err := s.permissions.Authorize(ctx, actor, models.CapStudentCodesWrite); err != nil {
		return dto.IssueCodeResponse{}, err
	}

	student, err := s.students.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.IssueCodeResponse{}, ErrStudentNotFound
		}
		return dto.IssueCodeResponse{}, err
	}

	code, err := s.issueFor(ctx, student.ID)
	if err != nil {
		return dto.IssueCodeResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      actor,
		Action:     "access_code.issue",
		TargetType: "student",
		TargetID:   &student.ID,
	})
	s.logger.Info().Uint("student_id", student.ID).Msg("access code issued")

	return dto.IssueCodeResponse{
		StudentID:   student.ID,
		StudentName: student.FullName,
		Phone:       student.Phone,
		Code:        code.Code,
		ExpiresAt:   code.ExpiresAt,
	}, nil
}

func (s *accessCodeService) Revoke(ctx context.Context, actor Principal, studentID uint) (int64, error) {
	if err := s.permissions.Authorize(ctx, actor, models.CapStudentCodesWrite); err != nil {
		return 0, err
	}

	revoked, err := s.codes.InvalidateActive(ctx, studentID, s.now())
	if err != nil {
		return 0, err
	}
	if revoked > 0 {
		s.audit.Record(ctx, AuditEntry{
			Actor:      actor,
			Action:     "access_code.revoke",
			TargetType: "student",
			TargetID:   &studentID,
		})
	}
	return revoked, nil
}

func (s *accessCodeService) Redeem(ctx context.Context, phone, code string) (dto.SessionResponse, error) {
	student, err := s.students.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrNoActiveCode
		}
		return dto.SessionResponse{}, err
	}

	live, err := s.codes.LatestUnused(ctx, student.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SessionResponse{}, ErrNoActiveCode
		}
		return dto.SessionResponse{}, err
	}

	if subtle.ConstantTimeCompare([]byte(live.Code), []byte(code)) != 1 {
		return dto.SessionResponse{}, ErrCodeMismatch
	}

	now := s.now()
	if !live.ExpiresAt.After(now) {
		return dto.SessionResponse{}, ErrCodeExpired
	}

	won, err := s.codes.Consume(ctx, live.ID, now)
	if err != nil {
		return dto.SessionResponse{}, err
	}
	if !won {
		return dto.SessionResponse{}, ErrCodeUsed
	}

	token, err := s.tokens.CodeSession(student.ID, student.Phone)
	if err != nil {
		return dto.SessionResponse{}, err
	}

	observability.CodesRedeemed().Inc()
	s.audit.Record(ctx, AuditEntry{
		Actor:      Principal{Role: RoleStudent, ID: student.ID},
		Action:     "access_code.redeem",
		TargetType: "student",
		TargetID:   &student.ID,
	})
	s.logger.Info().Uint("student_id", student.ID).Msg("access code redeemed")

	return dto.SessionResponse{
		Token:              token,
		Role:               RoleStudent,
		MustChangePassword: true,
	}, nil
}

func (s *accessCodeService) RequestResetCode(ctx context.Context, phone, email string) (dto.ResetCodeResponse, error) {
	student, err := s.students.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResetCodeResponse{}, ErrResetIdentityMismatch
		}
		return dto.ResetCodeResponse{}, err
	}

	match, err := s.students.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResetCodeResponse{}, ErrResetIdentityMismatch
		}
		return dto.ResetCodeResponse{}, err
	}
	if match.ID != student.ID {
		return dto.ResetCodeResponse{}, ErrResetIdentityMismatch
	}

	if _, err := s.issueFor(ctx, student.ID); err != nil {
		return dto.ResetCodeResponse{}, err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      Principal{Role: RoleStudent, ID: student.ID},
		Action:     "access_code.reset_request",
		TargetType: "student",
		TargetID:   &student.ID,
	})

	return dto.ResetCodeResponse{ExpiresInHours: int(s.ttl / time.Hour)}, nil
}

func (s *accessCodeService) ChangePassword(ctx context.Context, studentID uint, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.students.UpdatePassword(ctx, studentID, string(hash)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		Actor:      Principal{Role: RoleStudent, ID: studentID},
		Action:     "student.password_change",
		TargetType: "student",
		TargetID:   &studentID,
	})
	return nil
}

func (s *accessCodeService) issueFor(ctx context.Context, studentID uint) (models.AccessCode, error) {
	code := models.AccessCode{
		StudentID: studentID,
		Code:      s.genCode(),
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.codes.Issue(ctx, &code, s.now()); err != nil {
		return models.AccessCode{}, err
	}
	return code, nil
}
