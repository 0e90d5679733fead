package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/middleware"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// AdminStudentHandler serves the staff student directory and access code
// endpoints.
type AdminStudentHandler struct {
	students service.StudentService
	codes    service.AccessCodeService
	logger   zerolog.Logger
}

// NewAdminStudentHandler constructs the handler instance.
func NewAdminStudentHandler(students service.StudentService, codes service.AccessCodeService, logger zerolog.Logger) *AdminStudentHandler {
	return &AdminStudentHandler{
		students: students,
		codes:    codes,
		logger:   logger.With().Str("component", "admin_student_handler").Logger(),
	}
}

// Register wires the staff student routes.
func (h *AdminStudentHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/:id/access-code", h.issueCode)
	router.Delete("/:id/access-code", h.revokeCode)
}

func (h *AdminStudentHandler) list(c *fiber.Ctx) error {
	actor := middleware.PrincipalFromCtx(c)

	students, err := h.students.List(c.UserContext(), actor)
	if err != nil {
		return sendServiceError(c, err, "failed to list students")
	}
	return utils.SendSuccess(c, "students retrieved", students)
}

func (h *AdminStudentHandler) issueCode(c *fiber.Ctx) error {
	studentID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	actor := middleware.PrincipalFromCtx(c)

	issued, err := h.codes.Issue(c.UserContext(), actor, studentID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).
			Uint("student_id", studentID).
			Msg("access code issue rejected")
		return sendServiceError(c, err, "failed to issue access code")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "access code issued", issued)
}

func (h *AdminStudentHandler) revokeCode(c *fiber.Ctx) error {
	studentID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid student id")
	}
	actor := middleware.PrincipalFromCtx(c)

	revoked, err := h.codes.Revoke(c.UserContext(), actor, studentID)
	if err != nil {
		return sendServiceError(c, err, "failed to revoke access code")
	}
	return utils.SendSuccess(c, "access codes revoked", fiber.Map{"revoked": revoked})
}
