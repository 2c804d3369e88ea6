package server

import (
	"pixelpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListPresets handles GET /api/presets
// @Summary Active style presets
// @Tags presets
// @Produce json
// @Success 200 {array} models.StylePreset
// @Router /presets [get]
func (s *Server) ListPresets(c *fiber.Ctx) error {
	presets, err := s.presetService.ListActive(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(presets)
}

// ListAllPresets handles GET /api/admin/presets, inactive ones included.
func (s *Server) ListAllPresets(c *fiber.Ctx) error {
	presets, err := s.presetService.ListAll(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(presets)
}

// CreatePreset handles POST /api/admin/presets
func (s *Server) CreatePreset(c *fiber.Ctx) error {
	var in service.PresetInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	preset, err := s.presetService.Create(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(preset)
}

// UpdatePreset handles PUT /api/admin/presets/:id
func (s *Server) UpdatePreset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.PresetInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	preset, err := s.presetService.Update(c.UserContext(), id, in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(preset)
}

// TogglePreset handles POST /api/admin/presets/:id/toggle
func (s *Server) TogglePreset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	preset, err := s.presetService.Toggle(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(preset)
}
