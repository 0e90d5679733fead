package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/middleware"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// AdminAttemptHandler serves the staff attempt review endpoints.
type AdminAttemptHandler struct {
	assessments service.AssessmentService
	logger      zerolog.Logger
}

// NewAdminAttemptHandler constructs the handler instance.
func NewAdminAttemptHandler(assessments service.AssessmentService, logger zerolog.Logger) *AdminAttemptHandler {
	return &AdminAttemptHandler{
		assessments: assessments,
		logger:      logger.With().Str("component", "admin_attempt_handler").Logger(),
	}
}

// Register wires the attempt review routes.
func (h *AdminAttemptHandler) Register(router fiber.Router) {
	router.Get("/:id/attempts", h.listForAssessment)
}

func (h *AdminAttemptHandler) listForAssessment(c *fiber.Ctx) error {
	assessmentID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assessment id")
	}
	actor := middleware.PrincipalFromCtx(c)

	attempts, err := h.assessments.ListForAssessment(c.UserContext(), actor, assessmentID)
	if err != nil {
		return sendServiceError(c, err, "failed to list attempts")
	}
	return utils.SendSuccess(c, "assessment attempts", attempts)
}
