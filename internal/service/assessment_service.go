package service

import (
	"context"
	"errors"
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

// ErrAssessmentNotFound indicates the assessment does not exist.
var ErrAssessmentNotFound = errors.New("assessment not found")

// ErrAttemptLimitReached indicates the student has exhausted the attempt
// ceiling for this assessment.
var ErrAttemptLimitReached = errors.New("attempt limit reached")

// ErrContentLocked indicates the student is not entitled to the lesson the
// assessment belongs to.
var ErrContentLocked = errors.New("content locked")

// AssessmentService runs timed, scored, attempt-limited question sets. The
// first attempt per student and assessment is the official record; later
// attempts are practice and never change it.
type AssessmentService interface {
	OpenAttempt(ctx context.Context, studentID, assessmentID uint) (dto.AttemptSessionResponse, error)
	Submit(ctx context.Context, studentID, assessmentID uint, request dto.SubmitRequest) (dto.SubmitResultResponse, error)
	History(ctx context.Context, studentID uint) ([]dto.AttemptHistoryResponse, error)
	ListForAssessment(ctx context.Context, actor Principal, assessmentID uint) ([]dto.AttemptHistoryResponse, error)
}

type assessmentService struct {
	assessments  repository.AssessmentRepository
	attempts     repository.AttemptRepository
	entitlements EntitlementService
	permissions  PermissionService
	logger       zerolog.Logger
	now          func() time.Time
	shuffle      func(n int, swap func(i, j int))
}

// NewAssessmentService wires the engine over its repositories.
func NewAssessmentService(
	assessments repository.AssessmentRepository,
	attempts repository.AttemptRepository,
	entitlements EntitlementService,
	permissions PermissionService,
	logger zerolog.Logger,
) AssessmentService {
	return &assessmentService{
		assessments:  assessments,
		attempts:     attempts,
		entitlements: entitlements,
		permissions:  permissions,
		logger:       logger.With().Str("component", "assessment_service").Logger(),
		now:          time.Now,
		shuffle:      rand.Shuffle,
	}
}

func (s *assessmentService) OpenAttempt(ctx context.Context, studentID, assessmentID uint) (dto.AttemptSessionResponse, error) {
	assessment, err := s.loadGated(ctx, studentID, assessmentID)
	if err != nil {
		return dto.AttemptSessionResponse{}, err
	}

	used, err := s.attempts.Count(ctx, studentID, assessmentID)
	if err != nil {
		return dto.AttemptSessionResponse{}, err
	}
	ceiling := assessment.AttemptCeiling()
	if used >= int64(ceiling) {
		return dto.AttemptSessionResponse{}, ErrAttemptLimitReached
	}

	var official *dto.OfficialScore
	if used > 0 {
		first, err := s.attempts.First(ctx, studentID, assessmentID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AttemptSessionResponse{}, err
		}
		if err == nil {
			official = &dto.OfficialScore{
				AttemptID: first.ID,
				Score:     first.Score,
				Total:     first.Total,
				CreatedAt: first.CreatedAt,
			}
		}
	}

	questions, err := s.assessments.ListQuestions(ctx, assessmentID)
	if err != nil {
		return dto.AttemptSessionResponse{}, err
	}
	s.shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	responses := make([]dto.QuestionResponse, 0, len(questions))
	for _, question := range questions {
		responses = append(responses, dto.NewQuestionResponse(question))
	}

	return dto.AttemptSessionResponse{
		AssessmentID:      assessment.ID,
		Kind:              assessment.Kind,
		Title:             assessment.Title,
		DurationMinutes:   assessment.DurationMinutes,
		AttemptsUsed:      int(used),
		AttemptsAllowed:   ceiling,
		AttemptsRemaining: ceiling - int(used),
		OfficialScore:     official,
		Questions:         responses,
	}, nil
}

func (s *assessmentService) Submit(ctx context.Context, studentID, assessmentID uint, request dto.SubmitRequest) (dto.SubmitResultResponse, error) {
	tracer := otel.Tracer("github.com/darsy-edu/darsy-api/internal/service/assessment")
	ctx, span := tracer.Start(ctx, "assessment.submit")
	span.SetAttributes(
		attribute.Int64("assessment.id", int64(assessmentID)),
		attribute.Int64("assessment.student_id", int64(studentID)),
	)
	defer span.End()

	assessment, err := s.loadGated(ctx, studentID, assessmentID)
	if err != nil {
		span.SetStatus(codes.Error, "gate_failed")
		return dto.SubmitResultResponse{}, err
	}

	questions, err := s.assessments.ListQuestions(ctx, assessmentID)
	if err != nil {
		return dto.SubmitResultResponse{}, err
	}

	// Last submission wins when a question id repeats in the payload.
	chosen := make(map[uint]int, len(request.Answers))
	for _, answer := range request.Answers {
		chosen[answer.QuestionID] = answer.ChosenOption
	}

	score, total := 0, 0
	answers := make([]models.AttemptAnswer, 0, len(questions))
	details := make([]dto.AnswerDetail, 0, len(questions))
	for _, question := range questions {
		total += question.Points

		option, answered := chosen[question.ID]
		if !answered || option < 0 || option > 3 {
			option = -1
		}
		correct := option == question.CorrectOption
		awarded := 0
		if correct {
			awarded = question.Points
			score += awarded
		}

		answers = append(answers, models.AttemptAnswer{
			QuestionID:    question.ID,
			ChosenOption:  option,
			IsCorrect:     correct,
			PointsAwarded: awarded,
		})
		details = append(details, answerDetail(question, option, awarded))
	}

	spent := request.SpentSeconds
	if spent < 0 {
		spent = 0
	}
	if max := assessment.MaxSpentSeconds(); spent > max {
		spent = max
	}

	attempt := models.Attempt{
		StudentID:    studentID,
		AssessmentID: assessmentID,
		Score:        score,
		Total:        total,
		SpentSeconds: spent,
	}

	prior, err := s.attempts.Record(ctx, &attempt, answers, assessment.AttemptCeiling())
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, repository.ErrAttemptCeiling) {
			span.SetStatus(codes.Error, "attempt_ceiling")
			return dto.SubmitResultResponse{}, ErrAttemptLimitReached
		}
		return dto.SubmitResultResponse{}, err
	}

	officialScore, officialTotal := score, total
	if prior != nil {
		officialScore, officialTotal = prior.Score, prior.Total
	}

	used, err := s.attempts.Count(ctx, studentID, assessmentID)
	if err != nil {
		return dto.SubmitResultResponse{}, err
	}
	ceiling := assessment.AttemptCeiling()
	remaining := ceiling - int(used)
	if remaining < 0 {
		remaining = 0
	}

	observability.AttemptsRecorded().WithLabelValues(assessment.Kind).Inc()
	s.logger.Info().
		Uint("student_id", studentID).
		Uint("assessment_id", assessmentID).
		Int("score", score).
		Int("total", total).
		Bool("first_attempt", prior == nil).
		Msg("attempt recorded")

	return dto.SubmitResultResponse{
		AttemptID:         attempt.ID,
		AssessmentKind:    assessment.Kind,
		Score:             officialScore,
		Total:             officialTotal,
		CurrentScore:      score,
		CurrentTotal:      total,
		IsFirstAttempt:    prior == nil,
		SpentSeconds:      spent,
		AttemptsUsed:      int(used),
		AttemptsAllowed:   ceiling,
		AttemptsRemaining: remaining,
		Details:           details,
	}, nil
}

func (s *assessmentService) History(ctx context.Context, studentID uint) ([]dto.AttemptHistoryResponse, error) {
	attempts, err := s.attempts.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	return s.historyResponses(ctx, attempts)
}

func (s *assessmentService) ListForAssessment(ctx context.Context, actor Principal, assessmentID uint) ([]dto.AttemptHistoryResponse, error) {
	if err := s.permissions.Authorize(ctx, actor, models.CapAttemptsRead); err != nil {
		return nil, err
	}

	if _, err := s.assessments.GetByID(ctx, assessmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssessmentNotFound
		}
		return nil, err
	}

	attempts, err := s.attempts.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, err
	}
	return s.historyResponses(ctx, attempts)
}

// loadGated resolves the assessment and verifies the student can access the
// lesson it belongs to.
func (s *assessmentService) loadGated(ctx context.Context, studentID, assessmentID uint) (models.Assessment, error) {
	assessment, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assessment{}, ErrAssessmentNotFound
		}
		return models.Assessment{}, err
	}

	decision, err := s.entitlements.CanAccess(ctx, studentID, assessment.LessonID)
	if err != nil {
		return models.Assessment{}, err
	}
	if !decision.Granted {
		return models.Assessment{}, ErrContentLocked
	}
	return assessment, nil
}

func (s *assessmentService) historyResponses(ctx context.Context, attempts []models.Attempt) ([]dto.AttemptHistoryResponse, error) {
	assessmentCache := make(map[uint]models.Assessment)
	questionCache := make(map[uint]map[uint]models.Question)

	responses := make([]dto.AttemptHistoryResponse, 0, len(attempts))
	for _, attempt := range attempts {
		assessment, ok := assessmentCache[attempt.AssessmentID]
		if !ok {
			loaded, err := s.assessments.GetByID(ctx, attempt.AssessmentID)
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			assessment = loaded
			assessmentCache[attempt.AssessmentID] = assessment
		}

		questions, ok := questionCache[attempt.AssessmentID]
		if !ok {
			listed, err := s.assessments.ListQuestions(ctx, attempt.AssessmentID)
			if err != nil {
				return nil, err
			}
			questions = make(map[uint]models.Question, len(listed))
			for _, question := range listed {
				questions[question.ID] = question
			}
			questionCache[attempt.AssessmentID] = questions
		}

		details := make([]dto.AnswerDetail, 0, len(attempt.Answers))
		for _, answer := range attempt.Answers {
			question, ok := questions[answer.QuestionID]
			if !ok {
				continue
			}
			details = append(details, answerDetail(question, answer.ChosenOption, answer.PointsAwarded))
		}

		responses = append(responses, dto.AttemptHistoryResponse{
			AttemptID:       attempt.ID,
			AssessmentID:    attempt.AssessmentID,
			AssessmentKind:  assessment.Kind,
			AssessmentTitle: assessment.Title,
			Score:           attempt.Score,
			Total:           attempt.Total,
			SpentSeconds:    attempt.SpentSeconds,
			CreatedAt:       attempt.CreatedAt,
			Details:         details,
		})
	}
	return responses, nil
}

func answerDetail(question models.Question, option, awarded int) dto.AnswerDetail {
	options := question.Options()
	chosenText := ""
	if option >= 0 && option <= 3 {
		chosenText = options[option]
	}
	correctText := ""
	if question.CorrectOption >= 0 && question.CorrectOption <= 3 {
		correctText = options[question.CorrectOption]
	}
	return dto.AnswerDetail{
		QuestionID:    question.ID,
		Question:      question.Text,
		ChosenOption:  option,
		ChosenText:    chosenText,
		CorrectOption: question.CorrectOption,
		CorrectText:   correctText,
		IsCorrect:     awarded > 0 || (option == question.CorrectOption),
		PointsAwarded: awarded,
		Points:        question.Points,
	}
}
