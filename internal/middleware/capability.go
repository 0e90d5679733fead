package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// RequireCapability gates a route on a single capability. The owner passes
// every check; supervisors are resolved through the permission service.
// It must run after JWTProtected.
func RequireCapability(permissions service.PermissionService, capability models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromCtx(c)
		if err := permissions.Authorize(c.UserContext(), principal, capability); err != nil {
			return sendAuthorizationError(c, err)
		}
		return c.Next()
	}
}

// RequireAnyCapability gates a route on holding at least one of the given
// capabilities.
func RequireAnyCapability(permissions service.PermissionService, capabilities ...models.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal := PrincipalFromCtx(c)
		if err := permissions.AuthorizeAny(c.UserContext(), principal, capabilities...); err != nil {
			return sendAuthorizationError(c, err)
		}
		return c.Next()
	}
}

func sendAuthorizationError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return utils.SendError(c, fiber.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, "forbidden")
	default:
		return utils.SendError(c, fiber.StatusInternalServerError, "authorization check failed")
	}
}
