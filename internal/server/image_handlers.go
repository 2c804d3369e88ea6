package server

import (
	"fmt"
	"strconv"

	"pixelpost/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetImage handles GET /api/images/:id
// @Summary Image detail
// @Description Public images are visible to everyone, private ones only to their owner.
// @Tags images
// @Produce json
// @Param id path string true "Image ID"
// @Success 200 {object} models.GeneratedImage
// @Failure 404 {object} models.ErrorResponse
// @Router /images/{id} [get]
func (s *Server) GetImage(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	img, err := s.mediaService.Get(c.UserContext(), userID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(img)
}

// ShareImage handles GET /api/images/:id/share
// @Summary Share page data
// @Tags images
// @Produce json
// @Param id path string true "Image ID"
// @Success 200 {object} service.ShareInfo
// @Router /images/{id}/share [get]
func (s *Server) ShareImage(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	info, err := s.mediaService.Share(c.UserContext(), userID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(info)
}

// ImageQRCode handles GET /api/images/:id/qr
// @Summary QR code for the share URL
// @Tags images
// @Produce json
// @Param id path string true "Image ID"
// @Success 200 {object} service.QRCode
// @Router /images/{id}/qr [get]
func (s *Server) ImageQRCode(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	qr, err := s.mediaService.QRCode(c.UserContext(), userID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "qr_code": qr.PNGBase64, "share_url": qr.ShareURL})
}

// DownloadImage handles GET /api/images/:id/download
// @Summary Download the original file
// @Tags images
// @Produce octet-stream
// @Param id path string true "Image ID"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse
// @Router /images/{id}/download [get]
func (s *Server) DownloadImage(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	dl, err := s.mediaService.Download(c.UserContext(), userID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, dl.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", dl.Filename))
	if dl.Size > 0 {
		c.Set(fiber.HeaderContentLength, strconv.FormatInt(dl.Size, 10))
	}
	// fasthttp closes the body once streamed.
	return c.SendStream(dl.Body, int(dl.Size))
}

// DeleteImage handles DELETE /api/images/:id
// @Summary Delete an owned image
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param id path string true "Image ID"
// @Success 200 {object} object{success=bool}
// @Failure 403 {object} models.ErrorResponse
// @Router /images/{id} [delete]
func (s *Server) DeleteImage(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.mediaService.Delete(c.UserContext(), userID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// BulkDeleteImages handles POST /api/images/bulk-delete
// @Summary Delete several owned images
// @Description Ids that do not exist or belong to someone else are skipped.
// @Tags images
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{image_ids=[]string} true "Images to delete"
// @Success 200 {object} object{success=bool,deleted_count=int}
// @Router /images/bulk-delete [post]
func (s *Server) BulkDeleteImages(c *fiber.Ctx) error {
	var req struct {
		ImageIDs []string `json:"image_ids"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ids := make([]uuid.UUID, 0, len(req.ImageIDs))
	for _, raw := range req.ImageIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid image ID: "+raw))
		}
		ids = append(ids, id)
	}

	n, err := s.mediaService.BulkDelete(c.UserContext(), userID(c), ids)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "deleted_count": n})
}

// ToggleImagePrivacy handles POST /api/images/:id/privacy
// @Summary Flip an owned image between public and private
// @Tags images
// @Produce json
// @Security BearerAuth
// @Param id path string true "Image ID"
// @Success 200 {object} object{success=bool,is_public=bool,status=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /images/{id}/privacy [post]
func (s *Server) ToggleImagePrivacy(c *fiber.Ctx) error {
	id, err := s.parseMediaID(c, "id")
	if err != nil {
		return nil
	}
	public, err := s.mediaService.TogglePrivacy(c.UserContext(), userID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(privacyResponse(public))
}

func privacyResponse(public bool) fiber.Map {
	status := "private"
	if public {
		status = "public"
	}
	return fiber.Map{"success": true, "is_public": public, "status": status}
}

// Gallery handles GET /api/gallery
// @Summary The caller's images with per-source counts
// @Tags images
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Gallery
// @Router /gallery [get]
func (s *Server) Gallery(c *fiber.Ctx) error {
	gallery, err := s.mediaService.Gallery(c.UserContext(), userID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(gallery)
}

// Explore handles GET /api/explore
// @Summary Public images, newest first
// @Tags images
// @Produce json
// @Param page query int false "Page number" default(1)
// @Success 200 {object} service.ExplorePage
// @Router /explore [get]
func (s *Server) Explore(c *fiber.Ctx) error {
	page, err := s.mediaService.Explore(c.UserContext(), c.QueryInt("page", 1))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(page)
}

// Home handles GET /api/home
// @Summary Landing page data
// @Tags images
// @Produce json
// @Success 200 {object} service.HomePage
// @Router /home [get]
func (s *Server) Home(c *fiber.Ctx) error {
	home, err := s.mediaService.Home(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(home)
}
