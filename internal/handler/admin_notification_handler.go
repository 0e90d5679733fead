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

// AdminNotificationHandler serves the staff broadcast endpoint.
type AdminNotificationHandler struct {
	notifications service.NotificationService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewAdminNotificationHandler constructs the handler instance.
func NewAdminNotificationHandler(notifications service.NotificationService, validate *validator.Validate, logger zerolog.Logger) *AdminNotificationHandler {
	return &AdminNotificationHandler{
		notifications: notifications,
		validate:      validate,
		logger:        logger.With().Str("component", "admin_notification_handler").Logger(),
	}
}

// Register wires the broadcast route.
func (h *AdminNotificationHandler) Register(router fiber.Router) {
	router.Post("/broadcast", h.broadcast)
}

func (h *AdminNotificationHandler) broadcast(c *fiber.Ctx) error {
	var req dto.BroadcastRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid broadcast payload")
	}
	actor := middleware.PrincipalFromCtx(c)

	result, err := h.notifications.Broadcast(c.UserContext(), actor, req)
	if err != nil {
		return sendServiceError(c, err, "broadcast failed")
	}

	requestLogger(h.logger, c).Info().
		Int("recipients", result.Recipients).
		Msg("broadcast sent")
	return utils.SendSuccess(c, "broadcast sent", result)
}
