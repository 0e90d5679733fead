package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// AssessmentHandler serves the student-facing attempt endpoints.
type AssessmentHandler struct {
	assessments service.AssessmentService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewAssessmentHandler constructs the handler instance.
func NewAssessmentHandler(assessments service.AssessmentService, validate *validator.Validate, logger zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		validate:    validate,
		logger:      logger.With().Str("component", "assessment_handler").Logger(),
	}
}

// Register wires the attempt routes.
func (h *AssessmentHandler) Register(router fiber.Router) {
	router.Get("/assessments/:id/attempt", h.openAttempt)
	router.Post("/assessments/:id/submit", h.submit)
	router.Get("/attempts", h.history)
}

func (h *AssessmentHandler) openAttempt(c *fiber.Ctx) error {
	assessmentID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assessment id")
	}
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	session, err := h.assessments.OpenAttempt(c.UserContext(), studentID, assessmentID)
	if err != nil {
		return sendServiceError(c, err, "failed to open attempt")
	}
	return utils.SendSuccess(c, "attempt opened", session)
}

func (h *AssessmentHandler) submit(c *fiber.Ctx) error {
	assessmentID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid assessment id")
	}
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var req dto.SubmitRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid submission payload")
	}

	result, err := h.assessments.Submit(c.UserContext(), studentID, assessmentID, req)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).
			Uint("assessment_id", assessmentID).
			Msg("attempt submission rejected")
		return sendServiceError(c, err, "failed to record attempt")
	}
	return utils.SendSuccess(c, "attempt recorded", result)
}

func (h *AssessmentHandler) history(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	attempts, err := h.assessments.History(c.UserContext(), studentID)
	if err != nil {
		return sendServiceError(c, err, "failed to load attempt history")
	}
	return utils.SendSuccess(c, "attempt history", attempts)
}
