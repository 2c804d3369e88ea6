package server

import (
	"github.com/gofiber/fiber/v2"
)

// VideoGallery handles GET /api/videos
func (s *Server) VideoGallery(c *fiber.Ctx) error {
	videos, err := s.videoService.Gallery(c.UserContext(), userID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"videos": videos, "total": len(videos)})
}

// GetVideo handles GET /api/videos/:id
func (s *Server) GetVideo(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	video, err := s.videoService.Get(c.UserContext(), userID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(video)
}

// DeleteVideo handles DELETE /api/videos/:id
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.videoService.Delete(c.UserContext(), userID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// ToggleVideoPrivacy handles POST /api/videos/:id/privacy
func (s *Server) ToggleVideoPrivacy(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	public, err := s.videoService.TogglePrivacy(c.UserContext(), userID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(privacyResponse(public))
}
