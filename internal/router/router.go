package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/darsy-edu/darsy-api/internal/config"
	"github.com/darsy-edu/darsy-api/internal/handler"
	"github.com/darsy-edu/darsy-api/internal/middleware"
	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/observability"
	"github.com/darsy-edu/darsy-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	AuthHandler              *handler.AuthHandler
	CatalogHandler           *handler.CatalogHandler
	SubscriptionHandler      *handler.SubscriptionHandler
	AssessmentHandler        *handler.AssessmentHandler
	NotificationHandler      *handler.NotificationHandler
	AdminPaymentHandler      *handler.AdminPaymentHandler
	AdminSupervisorHandler   *handler.AdminSupervisorHandler
	AdminStudentHandler      *handler.AdminStudentHandler
	AdminAuditHandler        *handler.AdminAuditHandler
	AdminNotificationHandler *handler.AdminNotificationHandler
	AdminAttemptHandler      *handler.AdminAttemptHandler
	Permissions              service.PermissionService
	JWTMiddleware            fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Public auth surface
	if deps.AuthHandler != nil {
		auth := api.Group("/auth", middleware.RateLimit("auth", 20, time.Minute))
		deps.AuthHandler.Register(auth)
		deps.AuthHandler.RegisterProtected(auth.Group("", jwtMiddleware))
	}

	// Student surface
	student := api.Group("", jwtMiddleware, middleware.RequireRoles(service.RoleStudent), middleware.RequireFullSession())
	if deps.CatalogHandler != nil {
		deps.CatalogHandler.Register(student)
	}
	if deps.SubscriptionHandler != nil {
		deps.SubscriptionHandler.Register(student.Group("/subscribe"))
	}
	if deps.AssessmentHandler != nil {
		deps.AssessmentHandler.Register(student)
	}
	if deps.NotificationHandler != nil {
		deps.NotificationHandler.Register(student.Group("/notifications"))
	}

	// Staff surface
	admin := api.Group("/admin", jwtMiddleware, middleware.RequireRoles(service.RoleOwner, service.RoleSupervisor))
	if deps.AdminPaymentHandler != nil {
		deps.AdminPaymentHandler.Register(admin.Group("/payments"))
	}
	if deps.AdminSupervisorHandler != nil {
		deps.AdminSupervisorHandler.Register(admin.Group("/supervisors"))
	}
	if deps.AdminStudentHandler != nil {
		deps.AdminStudentHandler.Register(admin.Group("/students"))
	}
	if deps.AdminAttemptHandler != nil {
		deps.AdminAttemptHandler.Register(admin.Group("/assessments"))
	}
	if deps.AdminNotificationHandler != nil {
		group := admin.Group("/notifications")
		if deps.Permissions != nil {
			group = admin.Group("/notifications",
				middleware.RequireCapability(deps.Permissions, models.CapNotificationsSend))
		}
		deps.AdminNotificationHandler.Register(group)
	}
	if deps.AdminAuditHandler != nil {
		group := admin.Group("/audit")
		if deps.Permissions != nil {
			group = admin.Group("/audit",
				middleware.RequireAnyCapability(deps.Permissions, models.CapAuditRead, models.CapNotificationsSend))
		}
		deps.AdminAuditHandler.Register(group)
	}
}
