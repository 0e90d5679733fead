package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/darsy-edu/darsy-api/internal/service"
	"github.com/darsy-edu/darsy-api/internal/utils"
)

// CatalogHandler serves the student-facing course and lesson catalog.
type CatalogHandler struct {
	content service.ContentService
	logger  zerolog.Logger
}

// NewCatalogHandler constructs the handler instance.
func NewCatalogHandler(content service.ContentService, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		content: content,
		logger:  logger.With().Str("component", "catalog_handler").Logger(),
	}
}

// Register wires the catalog routes.
func (h *CatalogHandler) Register(router fiber.Router) {
	router.Get("/courses", h.listCourses)
	router.Get("/courses/:id/lessons", h.listLessons)
	router.Get("/lessons/:id", h.viewLesson)
	router.Get("/lessons/:id/access", h.checkAccess)
}

func (h *CatalogHandler) listCourses(c *fiber.Ctx) error {
	studentID := userIDFromContext(c)

	courses, err := h.content.ListCourses(c.UserContext(), studentID)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list courses")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list courses")
	}
	return utils.SendSuccess(c, "courses retrieved", courses)
}

func (h *CatalogHandler) listLessons(c *fiber.Ctx) error {
	courseID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid course id")
	}
	studentID := userIDFromContext(c)

	lessons, err := h.content.ListLessons(c.UserContext(), studentID, courseID)
	if err != nil {
		return sendServiceError(c, err, "failed to list lessons")
	}
	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *CatalogHandler) viewLesson(c *fiber.Ctx) error {
	lessonID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	lesson, err := h.content.ViewLesson(c.UserContext(), studentID, lessonID)
	if err != nil {
		return sendServiceError(c, err, "failed to load lesson")
	}
	return utils.SendSuccess(c, "lesson retrieved", lesson)
}

func (h *CatalogHandler) checkAccess(c *fiber.Ctx) error {
	lessonID, err := parseParamID(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid lesson id")
	}
	studentID := userIDFromContext(c)
	if studentID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	decision, err := h.content.CheckAccess(c.UserContext(), studentID, lessonID)
	if err != nil {
		return sendServiceError(c, err, "failed to resolve access")
	}
	return utils.SendSuccess(c, "access resolved", decision)
}
