package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/repository"
)

type fakeAssessmentRepo struct {
	assessments map[uint]models.Assessment
	questions   map[uint][]models.Question
}

func (r *fakeAssessmentRepo) GetByID(_ context.Context, id uint) (models.Assessment, error) {
	assessment, ok := r.assessments[id]
	if !ok {
		return models.Assessment{}, gorm.ErrRecordNotFound
	}
	return assessment, nil
}

func (r *fakeAssessmentRepo) ListQuestions(_ context.Context, assessmentID uint) ([]models.Question, error) {
	questions := make([]models.Question, len(r.questions[assessmentID]))
	copy(questions, r.questions[assessmentID])
	return questions, nil
}

type fakeAttemptRepo struct {
	attempts []models.Attempt
	nextID   uint
}

func (r *fakeAttemptRepo) Count(_ context.Context, studentID, assessmentID uint) (int64, error) {
	var count int64
	for _, attempt := range r.attempts {
		if attempt.StudentID == studentID && attempt.AssessmentID == assessmentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeAttemptRepo) First(_ context.Context, studentID, assessmentID uint) (models.Attempt, error) {
	for _, attempt := range r.attempts {
		if attempt.StudentID == studentID && attempt.AssessmentID == assessmentID {
			return attempt, nil
		}
	}
	return models.Attempt{}, gorm.ErrRecordNotFound
}

func (r *fakeAttemptRepo) ListByStudent(_ context.Context, studentID uint) ([]models.Attempt, error) {
	matched := make([]models.Attempt, 0)
	for _, attempt := range r.attempts {
		if attempt.StudentID == studentID {
			matched = append(matched, attempt)
		}
	}
	return matched, nil
}

func (r *fakeAttemptRepo) ListByAssessment(_ context.Context, assessmentID uint) ([]models.Attempt, error) {
	matched := make([]models.Attempt, 0)
	for _, attempt := range r.attempts {
		if attempt.AssessmentID == assessmentID {
			matched = append(matched, attempt)
		}
	}
	return matched, nil
}

func (r *fakeAttemptRepo) Record(ctx context.Context, attempt *models.Attempt, answers []models.AttemptAnswer, ceiling int) (*models.Attempt, error) {
	used, _ := r.Count(ctx, attempt.StudentID, attempt.AssessmentID)
	if used >= int64(ceiling) {
		return nil, repository.ErrAttemptCeiling
	}

	var prior *models.Attempt
	if first, err := r.First(ctx, attempt.StudentID, attempt.AssessmentID); err == nil {
		copied := first
		prior = &copied
	}

	r.nextID++
	attempt.ID = r.nextID
	attempt.CreatedAt = time.Now()
	attempt.Answers = answers
	for i := range attempt.Answers {
		attempt.Answers[i].AttemptID = attempt.ID
	}
	r.attempts = append(r.attempts, *attempt)
	return prior, nil
}

type assessmentFixture struct {
	assessments  *fakeAssessmentRepo
	attempts     *fakeAttemptRepo
	entitlements *stubEntitlements
	permissions  *staticPermissions
	svc          AssessmentService
}

func newAssessmentFixture(t *testing.T) *assessmentFixture {
	t.Helper()
	fixture := &assessmentFixture{
		assessments: &fakeAssessmentRepo{
			assessments: map[uint]models.Assessment{
				1: {ID: 1, LessonID: 10, Kind: models.AssessmentKindQuiz, Title: "Equations quiz", DurationMinutes: 10, MaxAttempts: 2},
			},
			questions: map[uint][]models.Question{
				1: {
					{ID: 1, AssessmentID: 1, Text: "2+2", OptionA: "3", OptionB: "4", OptionC: "5", OptionD: "6", CorrectOption: 1, Points: 2},
					{ID: 2, AssessmentID: 1, Text: "3*3", OptionA: "9", OptionB: "6", OptionC: "3", OptionD: "12", CorrectOption: 0, Points: 3},
					{ID: 3, AssessmentID: 1, Text: "10/2", OptionA: "2", OptionB: "4", OptionC: "5", OptionD: "10", CorrectOption: 2, Points: 1},
				},
			},
		},
		attempts:     &fakeAttemptRepo{},
		entitlements: &stubEntitlements{decision: AccessDecision{Granted: true}},
		permissions:  &staticPermissions{},
	}

	svc := NewAssessmentService(fixture.assessments, fixture.attempts, fixture.entitlements, fixture.permissions, testLogger())
	fixture.svc = svc
	return fixture
}

func TestOpenAttemptShufflesQuestionsAndHidesAnswers(t *testing.T) {
	fixture := newAssessmentFixture(t)
	fixture.svc.(*assessmentService).shuffle = func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}

	session, err := fixture.svc.OpenAttempt(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Equal(t, "Equations quiz", session.Title)
	require.Equal(t, 2, session.AttemptsAllowed)
	require.Equal(t, 2, session.AttemptsRemaining)
	require.Nil(t, session.OfficialScore)
	require.Len(t, session.Questions, 3)
	require.Equal(t, uint(3), session.Questions[0].ID)
	require.Equal(t, uint(1), session.Questions[2].ID)

	// The stored ordering is untouched.
	require.Equal(t, uint(1), fixture.assessments.questions[1][0].ID)
}

func TestOpenAttemptLockedContent(t *testing.T) {
	fixture := newAssessmentFixture(t)
	fixture.entitlements.decision = AccessDecision{Reason: ReasonCourseSubscriptionRequired}

	_, err := fixture.svc.OpenAttempt(context.Background(), 7, 1)
	require.ErrorIs(t, err, ErrContentLocked)
}

func TestOpenAttemptUnknownAssessment(t *testing.T) {
	fixture := newAssessmentFixture(t)

	_, err := fixture.svc.OpenAttempt(context.Background(), 7, 99)
	require.ErrorIs(t, err, ErrAssessmentNotFound)
}

func TestSubmitScoresAndClampsSpentSeconds(t *testing.T) {
	fixture := newAssessmentFixture(t)

	result, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, ChosenOption: 1},
			{QuestionID: 2, ChosenOption: 3},
			{QuestionID: 3, ChosenOption: 7},
		},
		SpentSeconds: 100000,
	})
	require.NoError(t, err)
	require.True(t, result.IsFirstAttempt)
	require.Equal(t, 2, result.Score)
	require.Equal(t, 6, result.Total)
	require.Equal(t, result.Score, result.CurrentScore)
	require.Equal(t, 600, result.SpentSeconds)
	require.Equal(t, 1, result.AttemptsUsed)
	require.Equal(t, 1, result.AttemptsRemaining)

	// Out of range picks are stored as unanswered.
	require.Len(t, result.Details, 3)
	require.Equal(t, -1, result.Details[2].ChosenOption)
	require.Zero(t, result.Details[2].PointsAwarded)
}

func TestSubmitNegativeSpentSecondsClampedToZero(t *testing.T) {
	fixture := newAssessmentFixture(t)

	result, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{SpentSeconds: -30})
	require.NoError(t, err)
	require.Zero(t, result.SpentSeconds)
	require.Zero(t, result.Score)
	require.Equal(t, 6, result.Total)
}

func TestSubmitAcceptsAssessmentWithoutQuestions(t *testing.T) {
	fixture := newAssessmentFixture(t)
	fixture.assessments.assessments[2] = models.Assessment{ID: 2, LessonID: 10, Kind: models.AssessmentKindQuiz, Title: "Placeholder quiz", DurationMinutes: 10, MaxAttempts: 2}

	result, err := fixture.svc.Submit(context.Background(), 7, 2, dto.SubmitRequest{SpentSeconds: 45})
	require.NoError(t, err)
	require.True(t, result.IsFirstAttempt)
	require.Zero(t, result.Score)
	require.Zero(t, result.Total)
	require.Empty(t, result.Details)
	require.Equal(t, 45, result.SpentSeconds)

	require.Len(t, fixture.attempts.attempts, 1)
	stored := fixture.attempts.attempts[0]
	require.Equal(t, uint(2), stored.AssessmentID)
	require.Empty(t, stored.Answers)
}

func TestSubmitLastAnswerWinsOnDuplicateQuestion(t *testing.T) {
	fixture := newAssessmentFixture(t)

	result, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, ChosenOption: 0},
			{QuestionID: 1, ChosenOption: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 2, result.Score)
}

func TestSubmitFirstAttemptStaysOfficial(t *testing.T) {
	fixture := newAssessmentFixture(t)

	first, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{{QuestionID: 1, ChosenOption: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, 2, first.Score)

	second, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{
			{QuestionID: 1, ChosenOption: 1},
			{QuestionID: 2, ChosenOption: 0},
			{QuestionID: 3, ChosenOption: 2},
		},
	})
	require.NoError(t, err)
	require.False(t, second.IsFirstAttempt)
	require.Equal(t, 2, second.Score)
	require.Equal(t, 6, second.CurrentScore)
	require.Zero(t, second.AttemptsRemaining)

	// The official score survives in the next attempt gate too.
	_, err = fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{})
	require.ErrorIs(t, err, ErrAttemptLimitReached)
}

func TestOpenAttemptEnforcesCeilingAndReportsOfficial(t *testing.T) {
	fixture := newAssessmentFixture(t)

	first, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{{QuestionID: 2, ChosenOption: 0}},
	})
	require.NoError(t, err)

	session, err := fixture.svc.OpenAttempt(context.Background(), 7, 1)
	require.NoError(t, err)
	require.Equal(t, 1, session.AttemptsUsed)
	require.NotNil(t, session.OfficialScore)
	require.Equal(t, first.AttemptID, session.OfficialScore.AttemptID)
	require.Equal(t, 3, session.OfficialScore.Score)

	_, err = fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{})
	require.NoError(t, err)

	_, err = fixture.svc.OpenAttempt(context.Background(), 7, 1)
	require.ErrorIs(t, err, ErrAttemptLimitReached)
}

func TestHistoryIncludesGradedDetails(t *testing.T) {
	fixture := newAssessmentFixture(t)

	_, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{
		Answers: []dto.AnswerSubmission{{QuestionID: 1, ChosenOption: 1}},
		SpentSeconds: 90,
	})
	require.NoError(t, err)

	history, err := fixture.svc.History(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "Equations quiz", history[0].AssessmentTitle)
	require.Equal(t, 2, history[0].Score)
	require.Equal(t, 90, history[0].SpentSeconds)
	require.Len(t, history[0].Details, 3)

	other, err := fixture.svc.History(context.Background(), 8)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestListForAssessmentRequiresCapability(t *testing.T) {
	fixture := newAssessmentFixture(t)

	_, err := fixture.svc.Submit(context.Background(), 7, 1, dto.SubmitRequest{})
	require.NoError(t, err)

	attempts, err := fixture.svc.ListForAssessment(context.Background(), Principal{Role: RoleOwner}, 1)
	require.NoError(t, err)
	require.Len(t, attempts, 1)

	_, err = fixture.svc.ListForAssessment(context.Background(), Principal{Role: RoleOwner}, 99)
	require.ErrorIs(t, err, ErrAssessmentNotFound)

	fixture.permissions.err = ErrForbidden
	_, err = fixture.svc.ListForAssessment(context.Background(), Principal{Role: RoleSupervisor, ID: 3}, 1)
	require.ErrorIs(t, err, ErrForbidden)
}
