package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// AdminAuditHandler serves the staff audit trail listing. Capability gating
// happens in the route middleware.
type AdminAuditHandler struct {
	audit  service.AuditService
	logger zerolog.Logger
}

// NewAdminAuditHandler constructs the handler instance.
func NewAdminAuditHandler(audit service.AuditService, logger zerolog.Logger) *AdminAuditHandler {
	return &AdminAuditHandler{
		audit:  audit,
		logger: logger.With().Str("component", "admin_audit_handler").Logger(),
	}
}

// Register wires the audit routes.
func (h *AdminAuditHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
}

func (h *AdminAuditHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.audit.List(c.UserContext(), dto.AuditListRequest{
		Action: c.Query("action"),
		Limit:  limit,
	})
	if err != nil {
		return sendServiceError(c, err, "failed to list audit entries")
	}
	return utils.SendSuccess(c, "audit entries", entries)
}
