package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// JWTProtected returns a middleware that validates JWT bearer tokens and
// binds the authenticated principal to the request.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get("Authorization")
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "Bearer "
		if !strings.HasPrefix(strings.ToLower(authorization), strings.ToLower(bearer)) {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		if subjectID := extractSubjectID(claims); subjectID != nil {
			c.Locals("user_id", *subjectID)
		}
		if role := extractRole(claims); role != "" {
			c.Locals("user_role", role)
		}
		if truthyClaim(claims, "code_login") {
			c.Locals("code_login", true)
		}
		if truthyClaim(claims, "must_change_password") {
			c.Locals("must_change_password", true)
		}

		return c.Next()
	}
}

// RequireRoles rejects principals whose role is not in the allowed set.
// It must run after JWTProtected.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("user_role").(string)
		if role == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "unauthenticated")
		}
		if _, ok := allowed[role]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "forbidden")
		}
		return c.Next()
	}
}

// RequireFullSession rejects sessions that still owe a password change.
// A code-login session may only set a new password; everything else on the
// learner surface is off limits until it does. It must run after JWTProtected.
func RequireFullSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if pending, _ := c.Locals("must_change_password").(bool); pending {
			return utils.SendError(c, fiber.StatusForbidden, "password change required")
		}
		return c.Next()
	}
}

// PrincipalFromCtx reads the authenticated principal bound by JWTProtected.
func PrincipalFromCtx(c *fiber.Ctx) service.Principal {
	principal := service.Principal{}
	if role, ok := c.Locals("user_role").(string); ok {
		principal.Role = role
	}
	if id, ok := c.Locals("user_id").(uint); ok {
		principal.ID = id
	}
	return principal
}

// IsCodeLogin reports whether the session came from an access code
// redemption.
func IsCodeLogin(c *fiber.Ctx) bool {
	flagged, _ := c.Locals("code_login").(bool)
	return flagged
}

func extractSubjectID(claims jwt.MapClaims) *uint {
	keys := []string{"sub", "user_id", "id"}
	for _, key := range keys {
		if value, ok := claims[key]; ok {
			if normalized, err := normalizeSubjectID(value); err == nil {
				return &normalized
			}
		}
	}

	return nil
}

func normalizeSubjectID(value interface{}) (uint, error) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	case string:
		parsed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, err
		}
		return uint(parsed), nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("invalid subject")
		}
		return uint(v), nil
	default:
		return 0, fmt.Errorf("unsupported subject type")
	}
}

func extractRole(claims jwt.MapClaims) string {
	candidates := []string{"role", "roles"}
	for _, key := range candidates {
		if value, ok := claims[key]; ok {
			if role := normalizeRole(value); role != "" {
				return role
			}
		}
	}
	return ""
}

func normalizeRole(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case []interface{}:
		for _, item := range v {
			if str, ok := item.(string); ok {
				role := strings.ToLower(strings.TrimSpace(str))
				if role != "" {
					return role
				}
			}
		}
	default:
		return ""
	}
	return ""
}

func truthyClaim(claims jwt.MapClaims, key string) bool {
	value, ok := claims[key]
	if !ok {
		return false
	}
	flagged, ok := value.(bool)
	return ok && flagged
}
