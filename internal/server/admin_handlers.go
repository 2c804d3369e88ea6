package server

import (
	"pixelpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SubmitFeedback handles POST /api/feedback
// @Summary Rate the service
// @Tags feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.SubmitFeedbackInput true "Feedback"
// @Success 201 {object} models.Feedback
// @Failure 400 {object} models.ErrorResponse
// @Router /feedback [post]
func (s *Server) SubmitFeedback(c *fiber.Ctx) error {
	var in service.SubmitFeedbackInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = userID(c)

	fb, err := s.feedbackService.Submit(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fb)
}

// ListFeedback handles GET /api/admin/feedback
func (s *Server) ListFeedback(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	res, err := s.feedbackService.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// SourceReport handles GET /api/admin/sources
// @Summary Generation source statistics
// @Description Per-source totals, recent samples and the last 24 hours of activity.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Samples per source" default(5)
// @Success 200 {object} service.SourceReport
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/sources [get]
func (s *Server) SourceReport(c *fiber.Ctx) error {
	report, err := s.mediaService.SourceReport(c.UserContext(), c.QueryInt("limit", 5))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(report)
}

// GetFeatureFlags handles GET /api/admin/feature-flags
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"flags":     s.featureFlags.Raw(),
		"effective": s.featureFlags.Snapshot(userID(c)),
	})
}
