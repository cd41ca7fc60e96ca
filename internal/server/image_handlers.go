package server

import (
	"io"

	"ratefolio/internal/models"
	"ratefolio/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ImageUploadResponse is returned after an upload. URL is meant to be
// stored as a portfolio's portfolioImage.
type ImageUploadResponse struct {
	Hash    string `json:"hash"`
	URL     string `json:"url"`
	WebPURL string `json:"webp_url"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
}

// UploadImage handles POST /api/images
// @Summary Upload a portfolio image
// @Description Accepts PNG, JPEG or WebP in the multipart field "image" and stores resized JPEG and WebP copies
// @Tags images
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param image formData file true "Image file"
// @Success 201 {object} ImageUploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /images [post]
func (s *Server) UploadImage(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.images.MaxUploadBytes() {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Image exceeds the upload size limit"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	img, err := s.images.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		return models.RespondWithError(c, models.HTTPStatus(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.imageResponse(img))
}

// GetImage handles GET /api/images/:hash
// @Summary Image metadata
// @Tags images
// @Produce json
// @Param hash path string true "Image hash"
// @Success 200 {object} ImageUploadResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /images/{hash} [get]
func (s *Server) GetImage(c *fiber.Ctx) error {
	img, err := s.images.Get(c.UserContext(), c.Params("hash"))
	if err != nil {
		return models.RespondWithError(c, models.HTTPStatus(err), err)
	}
	return c.JSON(s.imageResponse(img))
}

func (s *Server) imageResponse(img *models.Image) ImageUploadResponse {
	return ImageUploadResponse{
		Hash:    img.Hash,
		URL:     s.images.URL(img),
		WebPURL: s.images.WebPURL(img),
		Width:   img.Width,
		Height:  img.Height,
	}
}
