package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints the bearer tokens used across the API. Code-login tokens
// carry a must-change-password marker and a shorter lifetime.
type TokenIssuer struct {
	secret         []byte
	sessionTTL     time.Duration
	codeSessionTTL time.Duration
	now            func() time.Time
}

// NewTokenIssuer builds a token issuer with the configured lifetimes.
func NewTokenIssuer(secret string, sessionTTL, codeSessionTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:         []byte(secret),
		sessionTTL:     sessionTTL,
		codeSessionTTL: codeSessionTTL,
		now:            time.Now,
	}
}

// Session issues a standard bearer token for the given principal.
func (t *TokenIssuer) Session(role string, id uint, phone string) (string, error) {
	return t.sign(jwt.MapClaims{
		"sub":   fmt.Sprintf("%d", id),
		"role":  role,
		"phone": phone,
	}, t.sessionTTL)
}

// CodeSession issues the restricted session granted by redeeming an access
// code. It may perform exactly one follow-up action: setting a new password.
func (t *TokenIssuer) CodeSession(studentID uint, phone string) (string, error) {
	return t.sign(jwt.MapClaims{
		"sub":                  fmt.Sprintf("%d", studentID),
		"role":                 RoleStudent,
		"phone":                phone,
		"code_login":           true,
		"must_change_password": true,
	}, t.codeSessionTTL)
}

func (t *TokenIssuer) sign(claims jwt.MapClaims, ttl time.Duration) (string, error) {
	now := t.now()
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
