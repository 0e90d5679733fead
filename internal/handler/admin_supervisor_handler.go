package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/dto"
	"github.com/darsy-edu/darsy-api/internal/middleware"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// AdminSupervisorHandler serves the owner's supervisor management endpoints.
type AdminSupervisorHandler struct {
	supervisors service.SupervisorService
	validate    *validator.Validate
	logger      zerolog.Logger
}

// NewAdminSupervisorHandler constructs the handler instance.
func NewAdminSupervisorHandler(supervisors service.SupervisorService, validate *validator.Validate, logger zerolog.Logger) *AdminSupervisorHandler {
	return &AdminSupervisorHandler{
		supervisors: supervisors,
		validate:    validate,
		logger:      logger.With().Str("component", "admin_supervisor_handler").Logger(),
	}
}

// Register wires the supervisor admin routes.
func (h *AdminSupervisorHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Put("/:id", h.update)
	router.Delete("/:id", h.delete)
	router.Get("/capabilities", h.capabilities)
}

func (h *AdminSupervisorHandler) list(c *fiber.Ctx) error {
	actor := middleware.PrincipalFromCtx(c)

	supervisors, err := h.supervisors.List(c.UserContext(), actor)
	if err != nil {
		return sendServiceError(c, err, "failed to list supervisors")
	}
	return utils.SendSuccess(c, "supervisors retrieved", supervisors)
}

func (h *AdminSupervisorHandler) create(c *fiber.Ctx) error {
	var req dto.SupervisorCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid supervisor payload")
	}
	actor := middleware.PrincipalFromCtx(c)

	supervisor, err := h.supervisors.Create(c.UserContext(), actor, req)
	if err != nil {
		return sendServiceError(c, err, "failed to create supervisor")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "supervisor created", supervisor)
}

func (h *AdminSupervisorHandler) update(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid supervisor id")
	}

	var req dto.SupervisorUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid supervisor payload")
	}
	actor := middleware.PrincipalFromCtx(c)

	supervisor, err := h.supervisors.Update(c.UserContext(), actor, id, req)
	if err != nil {
		return sendServiceError(c, err, "failed to update supervisor")
	}
	return utils.SendSuccess(c, "supervisor updated", supervisor)
}

func (h *AdminSupervisorHandler) delete(c *fiber.Ctx) error {
	id, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid supervisor id")
	}
	actor := middleware.PrincipalFromCtx(c)

	if err := h.supervisors.Delete(c.UserContext(), actor, id); err != nil {
		return sendServiceError(c, err, "failed to delete supervisor")
	}
	return utils.SendSuccess(c, "supervisor deleted", nil)
}

func (h *AdminSupervisorHandler) capabilities(c *fiber.Ctx) error {
	return utils.SendSuccess(c, "assignable capabilities", h.supervisors.Capabilities())
}
