package server

import (
	"pixelpost/internal/hashtags"
	"pixelpost/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GenerateImage handles POST /api/generate/image
// @Summary Generate an image
// @Description Runs the provider chain for the prompt and stores the result. Always returns an
// @Description image: when every provider fails the fallback generator is used and notice explains why.
// @Tags generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GenerateImageInput true "Generation request"
// @Success 201 {object} service.ImageResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /generate/image [post]
func (s *Server) GenerateImage(c *fiber.Ctx) error {
	var in service.GenerateImageInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = userID(c)

	res, err := s.generationService.GenerateImage(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(withCopyText(res))
}

// imageResponse adds the copy-ready hashtag line to a generation result.
type imageResponse struct {
	*service.ImageResult
	HashtagsText string `json:"hashtags_text"`
}

func withCopyText(res *service.ImageResult) imageResponse {
	return imageResponse{ImageResult: res, HashtagsText: hashtags.FormatForCopy(res.Image.Hashtags)}
}

// GenerateVideo handles POST /api/generate/video
// @Summary Generate a video
// @Tags generation
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.GenerateVideoInput true "Generation request"
// @Success 201 {object} service.VideoResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /generate/video [post]
func (s *Server) GenerateVideo(c *fiber.Ctx) error {
	var in service.GenerateVideoInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = userID(c)

	res, err := s.generationService.GenerateVideo(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// TrendingHashtags handles GET /api/hashtags/trending
// @Summary Trending hashtags
// @Tags hashtags
// @Produce json
// @Param limit query int false "Number of tags" default(10)
// @Success 200 {object} object{hashtags=[]string}
// @Router /hashtags/trending [get]
func (s *Server) TrendingHashtags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"hashtags": s.hashtags.Trending(c.QueryInt("limit", 10))})
}

// HashtagCategories handles GET /api/hashtags/categories
// @Summary Hashtag categories
// @Tags hashtags
// @Produce json
// @Success 200 {object} object{categories=[]hashtags.Category}
// @Router /hashtags/categories [get]
func (s *Server) HashtagCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": s.hashtags.Categories()})
}
