package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/middleware"
	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// AdminPaymentHandler serves the staff payment ledger endpoints.
type AdminPaymentHandler struct {
	payments service.PaymentService
	logger   zerolog.Logger
}

// NewAdminPaymentHandler constructs the handler instance.
func NewAdminPaymentHandler(payments service.PaymentService, logger zerolog.Logger) *AdminPaymentHandler {
	return &AdminPaymentHandler{
		payments: payments,
		logger:   logger.With().Str("component", "admin_payment_handler").Logger(),
	}
}

// Register wires the staff payment routes.
func (h *AdminPaymentHandler) Register(router fiber.Router) {
	router.Get("/pending", h.listPending)
	router.Post("/:id/approve", h.approve)
}

func (h *AdminPaymentHandler) listPending(c *fiber.Ctx) error {
	actor := middleware.PrincipalFromCtx(c)

	pending, err := h.payments.ListPending(c.UserContext(), actor)
	if err != nil {
		return sendServiceError(c, err, "failed to list pending payments")
	}
	return utils.SendSuccess(c, "pending payment requests", pending)
}

func (h *AdminPaymentHandler) approve(c *fiber.Ctx) error {
	requestID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request id")
	}
	actor := middleware.PrincipalFromCtx(c)

	approved, err := h.payments.Approve(c.UserContext(), actor, requestID)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).
			Uint("request_id", requestID).
			Msg("payment approval rejected")
		return sendServiceError(c, err, "payment approval failed")
	}
	return utils.SendSuccess(c, "payment request approved", approved)
}
