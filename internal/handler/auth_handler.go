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

// AuthHandler serves the login and password endpoints.
type AuthHandler struct {
	auth     service.AuthService
	codes    service.AccessCodeService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAuthHandler constructs the handler instance.
func NewAuthHandler(auth service.AuthService, codes service.AccessCodeService, validate *validator.Validate, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		codes:    codes,
		validate: validate,
		logger:   logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register wires the public auth routes.
func (h *AuthHandler) Register(router fiber.Router) {
	router.Post("/student/login", h.studentLogin)
	router.Post("/staff/login", h.staffLogin)
	router.Post("/code-login", h.codeLogin)
	router.Post("/reset-code", h.requestResetCode)
}

// RegisterProtected wires routes requiring an authenticated session.
func (h *AuthHandler) RegisterProtected(router fiber.Router) {
	router.Post("/change-password", h.changePassword)
}

func (h *AuthHandler) studentLogin(c *fiber.Ctx) error {
	var req dto.StudentLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid credentials payload")
	}

	session, err := h.auth.StudentLogin(c.UserContext(), req.Phone, req.Password)
	if err != nil {
		return sendServiceError(c, err, "login failed")
	}
	return utils.SendSuccess(c, "logged in", session)
}

func (h *AuthHandler) staffLogin(c *fiber.Ctx) error {
	var req dto.StaffLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid credentials payload")
	}

	session, err := h.auth.StaffLogin(c.UserContext(), req.Phone, req.Password)
	if err != nil {
		return sendServiceError(c, err, "login failed")
	}
	return utils.SendSuccess(c, "logged in", session)
}

func (h *AuthHandler) codeLogin(c *fiber.Ctx) error {
	var req dto.CodeLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid code payload")
	}

	session, err := h.codes.Redeem(c.UserContext(), req.Phone, req.Code)
	if err != nil {
		requestLogger(h.logger, c).Warn().Err(err).Msg("code login rejected")
		return sendServiceError(c, err, "code login failed")
	}
	return utils.SendSuccess(c, "logged in", session)
}

func (h *AuthHandler) requestResetCode(c *fiber.Ctx) error {
	var req dto.ResetCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid reset payload")
	}

	result, err := h.codes.RequestResetCode(c.UserContext(), req.Phone, req.Email)
	if err != nil {
		return sendServiceError(c, err, "reset request failed")
	}
	return utils.SendSuccess(c, "reset code issued", result)
}

func (h *AuthHandler) changePassword(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}
	if !middleware.IsCodeLogin(c) {
		return utils.SendError(c, fiber.StatusForbidden, "password change requires a code login session")
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid password payload")
	}

	if err := h.codes.ChangePassword(c.UserContext(), studentID, req.NewPassword); err != nil {
		return sendServiceError(c, err, "password change failed")
	}
	return utils.SendSuccess(c, "password changed", nil)
}
