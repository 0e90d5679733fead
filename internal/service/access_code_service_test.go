package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/darsy-edu/darsy-api/internal/models"
)

type fakeCodeRepo struct {
	codes       []models.AccessCode
	nextID      uint
	consumeLost bool
}

func (r *fakeCodeRepo) Issue(_ context.Context, code *models.AccessCode, now time.Time) error {
	for i, existing := range r.codes {
		if existing.StudentID == code.StudentID && existing.UsedAt == nil {
			usedAt := now
			r.codes[i].UsedAt = &usedAt
		}
	}
	r.nextID++
	code.ID = r.nextID
	code.CreatedAt = now
	r.codes = append(r.codes, *code)
	return nil
}

func (r *fakeCodeRepo) InvalidateActive(_ context.Context, studentID uint, now time.Time) (int64, error) {
	var revoked int64
	for i, existing := range r.codes {
		if existing.StudentID == studentID && existing.Active(now) {
			usedAt := now
			r.codes[i].UsedAt = &usedAt
			revoked++
		}
	}
	return revoked, nil
}

func (r *fakeCodeRepo) LatestUnused(_ context.Context, studentID uint) (models.AccessCode, error) {
	for i := len(r.codes) - 1; i >= 0; i-- {
		if r.codes[i].StudentID == studentID && r.codes[i].UsedAt == nil {
			return r.codes[i], nil
		}
	}
	return models.AccessCode{}, gorm.ErrRecordNotFound
}

func (r *fakeCodeRepo) Consume(_ context.Context, id uint, now time.Time) (bool, error) {
	if r.consumeLost {
		return false, nil
	}
	for i, existing := range r.codes {
		if existing.ID != id {
			continue
		}
		if existing.UsedAt != nil {
			return false, nil
		}
		usedAt := now
		r.codes[i].UsedAt = &usedAt
		return true, nil
	}
	return false, nil
}

type codeFixture struct {
	codes       *fakeCodeRepo
	students    *fakeStudentRepo
	permissions *staticPermissions
	audit       *recordingAudit
	svc         AccessCodeService
	now         time.Time
}

func newCodeFixture(t *testing.T) *codeFixture {
	t.Helper()
	fixture := &codeFixture{
		codes: &fakeCodeRepo{},
		students: &fakeStudentRepo{students: []models.Student{
			{ID: 7, FullName: "Nour", Phone: "01011112222", Email: "nour@example.com", Grade: "3sec"},
			{ID: 8, FullName: "Karim", Phone: "01033334444", Email: "karim@example.com", Grade: "3sec"},
		}},
		permissions: &staticPermissions{},
		audit:       &recordingAudit{},
		now:         time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	tokens := NewTokenIssuer("test-secret", 12*time.Hour, 2*time.Hour)
	svc := NewAccessCodeService(fixture.codes, fixture.students, fixture.permissions, tokens, fixture.audit, 24*time.Hour, testLogger())
	impl := svc.(*accessCodeService)
	impl.now = func() time.Time { return fixture.now }
	sequence := 0
	impl.genCode = func() string {
		sequence++
		return fmt.Sprintf("%06d", 314158+sequence)
	}
	fixture.svc = svc
	return fixture
}

func TestIssueReturnsSixDigitCode(t *testing.T) {
	fixture := newCodeFixture(t)
	owner := Principal{Role: RoleOwner}

	issued, err := fixture.svc.Issue(context.Background(), owner, 7)
	require.NoError(t, err)
	require.Equal(t, uint(7), issued.StudentID)
	require.Equal(t, "Nour", issued.StudentName)
	require.Regexp(t, regexp.MustCompile(`^\d{6}$`), issued.Code)
	require.Equal(t, fixture.now.Add(24*time.Hour), issued.ExpiresAt)
	require.Contains(t, fixture.audit.actions(), "access_code.issue")
}

func TestIssueDisplacesPriorCode(t *testing.T) {
	fixture := newCodeFixture(t)
	owner := Principal{Role: RoleOwner}

	first, err := fixture.svc.Issue(context.Background(), owner, 7)
	require.NoError(t, err)
	second, err := fixture.svc.Issue(context.Background(), owner, 7)
	require.NoError(t, err)

	require.NotEqual(t, first.Code, second.Code)
	_, err = fixture.svc.Redeem(context.Background(), "01011112222", first.Code)
	require.ErrorIs(t, err, ErrCodeMismatch)

	live, err := fixture.codes.LatestUnused(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, second.Code, live.Code)
}

func TestIssueRequiresCapability(t *testing.T) {
	fixture := newCodeFixture(t)
	fixture.permissions.err = ErrForbidden

	_, err := fixture.svc.Issue(context.Background(), Principal{Role: RoleSupervisor, ID: 3}, 7)
	require.ErrorIs(t, err, ErrForbidden)
}

func TestIssueUnknownStudent(t *testing.T) {
	fixture := newCodeFixture(t)

	_, err := fixture.svc.Issue(context.Background(), Principal{Role: RoleOwner}, 99)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestRedeemGrantsRestrictedSession(t *testing.T) {
	fixture := newCodeFixture(t)

	issued, err := fixture.svc.Issue(context.Background(), Principal{Role: RoleOwner}, 7)
	require.NoError(t, err)

	session, err := fixture.svc.Redeem(context.Background(), "01011112222", issued.Code)
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, RoleStudent, session.Role)
	require.True(t, session.MustChangePassword)
	require.Contains(t, fixture.audit.actions(), "access_code.redeem")

	// Single use: the code is spent.
	_, err = fixture.svc.Redeem(context.Background(), "01011112222", issued.Code)
	require.ErrorIs(t, err, ErrNoActiveCode)
}

func TestRedeemFailureModes(t *testing.T) {
	fixture := newCodeFixture(t)

	_, err := fixture.svc.Redeem(context.Background(), "01099999999", "123456")
	require.ErrorIs(t, err, ErrNoActiveCode)

	_, err = fixture.svc.Redeem(context.Background(), "01011112222", "123456")
	require.ErrorIs(t, err, ErrNoActiveCode)

	issued, err := fixture.svc.Issue(context.Background(), Principal{Role: RoleOwner}, 7)
	require.NoError(t, err)

	wrong := "000000"
	if issued.Code == wrong {
		wrong = "000001"
	}
	_, err = fixture.svc.Redeem(context.Background(), "01011112222", wrong)
	require.ErrorIs(t, err, ErrCodeMismatch)

	fixture.now = fixture.now.Add(25 * time.Hour)
	_, err = fixture.svc.Redeem(context.Background(), "01011112222", issued.Code)
	require.ErrorIs(t, err, ErrCodeExpired)
}

func TestRedeemLosingConsumeRace(t *testing.T) {
	fixture := newCodeFixture(t)
	fixture.codes.consumeLost = true

	issued, err := fixture.svc.Issue(context.Background(), Principal{Role: RoleOwner}, 7)
	require.NoError(t, err)

	_, err = fixture.svc.Redeem(context.Background(), "01011112222", issued.Code)
	require.ErrorIs(t, err, ErrCodeUsed)
}

func TestRevokeInvalidatesActiveCodes(t *testing.T) {
	fixture := newCodeFixture(t)
	owner := Principal{Role: RoleOwner}

	_, err := fixture.svc.Issue(context.Background(), owner, 7)
	require.NoError(t, err)

	revoked, err := fixture.svc.Revoke(context.Background(), owner, 7)
	require.NoError(t, err)
	require.Equal(t, int64(1), revoked)
	require.Contains(t, fixture.audit.actions(), "access_code.revoke")

	again, err := fixture.svc.Revoke(context.Background(), owner, 7)
	require.NoError(t, err)
	require.Zero(t, again)
}

func TestRequestResetCodeMatchesIdentity(t *testing.T) {
	fixture := newCodeFixture(t)

	response, err := fixture.svc.RequestResetCode(context.Background(), "01011112222", "nour@example.com")
	require.NoError(t, err)
	require.Equal(t, 24, response.ExpiresInHours)

	live, err := fixture.codes.LatestUnused(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, fixture.now.Add(24*time.Hour), live.ExpiresAt)
}

func TestRequestResetCodeIdentityMismatch(t *testing.T) {
	fixture := newCodeFixture(t)

	_, err := fixture.svc.RequestResetCode(context.Background(), "01011112222", "karim@example.com")
	require.ErrorIs(t, err, ErrResetIdentityMismatch)

	_, err = fixture.svc.RequestResetCode(context.Background(), "01099999999", "nour@example.com")
	require.ErrorIs(t, err, ErrResetIdentityMismatch)

	_, err = fixture.svc.RequestResetCode(context.Background(), "01011112222", "nobody@example.com")
	require.ErrorIs(t, err, ErrResetIdentityMismatch)
}

func TestChangePasswordStoresBcryptHash(t *testing.T) {
	fixture := newCodeFixture(t)

	require.NoError(t, fixture.svc.ChangePassword(context.Background(), 7, "new-secret-1"))

	hash, ok := fixture.students.passwords[7]
	require.True(t, ok)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("new-secret-1")))

	err := fixture.svc.ChangePassword(context.Background(), 99, "new-secret-1")
	require.ErrorIs(t, err, ErrStudentNotFound)
}
