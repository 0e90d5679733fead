package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/darsy-edu/darsy-api/internal/models"
)

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(t *testing.T, ownerPhone, ownerPassword string) AuthService {
	t.Helper()
	students := &fakeStudentRepo{students: []models.Student{
		{ID: 7, FullName: "Nour", Phone: "01011112222", PasswordHash: hashPassword(t, "student-pass")},
	}}
	supervisors := supervisorFixture(t, "payments:read")
	supervisor := supervisors.rows[1]
	supervisor.PasswordHash = hashPassword(t, "super-pass")
	supervisors.rows[1] = supervisor

	tokens := NewTokenIssuer("test-secret", 12*time.Hour, 2*time.Hour)
	return NewAuthService(students, supervisors, tokens, ownerPhone, ownerPassword, testLogger())
}

func TestStudentLogin(t *testing.T) {
	svc := newAuthFixture(t, "", "")

	session, err := svc.StudentLogin(context.Background(), "01011112222", "student-pass")
	require.NoError(t, err)
	require.Equal(t, RoleStudent, session.Role)
	require.NotEmpty(t, session.Token)
	require.False(t, session.MustChangePassword)

	_, err = svc.StudentLogin(context.Background(), "01011112222", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.StudentLogin(context.Background(), "01099999999", "student-pass")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStaffLoginOwner(t *testing.T) {
	svc := newAuthFixture(t, "01200000000", "owner-secret")

	session, err := svc.StaffLogin(context.Background(), "01200000000", "owner-secret")
	require.NoError(t, err)
	require.Equal(t, RoleOwner, session.Role)

	_, err = svc.StaffLogin(context.Background(), "01200000000", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStaffLoginOwnerDisabledWithoutConfig(t *testing.T) {
	svc := newAuthFixture(t, "", "")

	_, err := svc.StaffLogin(context.Background(), "", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestStaffLoginSupervisor(t *testing.T) {
	svc := newAuthFixture(t, "01200000000", "owner-secret")

	session, err := svc.StaffLogin(context.Background(), "01000000001", "super-pass")
	require.NoError(t, err)
	require.Equal(t, RoleSupervisor, session.Role)

	_, err = svc.StaffLogin(context.Background(), "01000000001", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCodeSessionClaims(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 12*time.Hour, 2*time.Hour)
	issued := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	signed, err := issuer.CodeSession(7, "01011112222")
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(func() time.Time { return issued }))
	require.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, "7", claims["sub"])
	require.Equal(t, RoleStudent, claims["role"])
	require.Equal(t, true, claims["code_login"])
	require.Equal(t, true, claims["must_change_password"])
	require.Equal(t, float64(issued.Add(2*time.Hour).Unix()), claims["exp"])
}

func TestSessionClaimsOmitCodeLoginMarkers(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", 12*time.Hour, 2*time.Hour)

	signed, err := issuer.Session(RoleSupervisor, 3, "01000000001")
	require.NoError(t, err)

	token, err := jwt.Parse(signed, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)

	claims := token.Claims.(jwt.MapClaims)
	require.Equal(t, RoleSupervisor, claims["role"])
	require.NotContains(t, claims, "code_login")
	require.NotContains(t, claims, "must_change_password")
}
