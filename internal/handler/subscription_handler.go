package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/models"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// SubscriptionHandler serves the student-facing subscribe endpoints.
type SubscriptionHandler struct {
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewSubscriptionHandler constructs the handler instance.
func NewSubscriptionHandler(payments service.PaymentService, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		payments: payments,
		logger:   logger.With().Str("component", "subscription_handler").Logger(),
	}
}

// Register wires the subscribe routes.
func (h *SubscriptionHandler) Register(router fiber.Router) {
	router.Post("/courses/:id", h.subscribeCourse)
	router.Post("/lessons/:id", h.subscribeLesson)
}

func (h *SubscriptionHandler) subscribeCourse(c *fiber.Ctx) error {
	return h.subscribe(c, models.KindCourse)
}

func (h *SubscriptionHandler) subscribeLesson(c *fiber.Ctx) error {
	return h.subscribe(c, models.KindLesson)
}

func (h *SubscriptionHandler) subscribe(c *fiber.Ctx, kind models.ContentKind) error {
	targetID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid target id")
	}
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	result, err := h.payments.Subscribe(c.UserContext(), studentID, kind, targetID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).
			Str("kind", string(kind)).
			Uint("target_id", targetID).
			Msg("subscription rejected")
		return sendServiceError(c, err, "subscription failed")
	}
	return utils.SendSuccess(c, "subscription processed", result)
}
