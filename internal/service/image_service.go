package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"ratefolio/internal/config"
	"ratefolio/internal/models"
	"ratefolio/internal/observability"
	"ratefolio/internal/repository"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir       = "/tmp/ratefolio/uploads/images"
	DefaultImageMaxUploadSizeMB = 10
	MaxImageEdge                = 1600
	MaxImagePixels              = (4 * MaxImageEdge) * (4 * MaxImageEdge)
	JPEGQuality                 = 82
	WebPQuality                 = 70

	jpegFileName = "image.jpg"
	webpFileName = "image.webp"
	mediaPrefix  = "/media"
)

// UploadImageInput is one multipart upload.
type UploadImageInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

// ImageService normalizes uploaded portfolio screenshots and stores them on disk.
type ImageService struct {
	repo               repository.ImageRepository
	uploadDir          string
	maxUploadSizeBytes int64
}

func NewImageService(repo repository.ImageRepository, cfg *config.Config) *ImageService {
	uploadDir := DefaultImageUploadDir
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB

	if cfg != nil {
		if cfg.ImageUploadDir != "" {
			uploadDir = cfg.ImageUploadDir
		}
		if cfg.ImageMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
		}
	}

	return &ImageService{
		repo:               repo,
		uploadDir:          uploadDir,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// UploadDir is the directory served under /media.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// MaxUploadBytes is the configured size limit.
func (s *ImageService) MaxUploadBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload validates, resizes and stores an image. Re-uploading identical
// content as the same user returns the existing record.
func (s *ImageService) Upload(ctx context.Context, in UploadImageInput) (*models.Image, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError(MsgLoginRequired)
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return nil, models.NewValidationError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") &&
		provided != normalizeContentType(detected) && !(provided == "image/jpg" && detected == "image/jpeg") {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	// Decoders allocate from the declared dimensions, so check them first.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxImagePixels {
		return nil, models.NewValidationError("Image dimensions too large")
	}

	decoded, _, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	normalized := resizeToFit(decoded, MaxImageEdge, MaxImageEdge)
	encodedJPEG, err := encodeJPEG(normalized, JPEGQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	encodedWebP, err := encodeWebP(normalized, WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	hash := imageHash(in.UserID, encodedJPEG)
	existing, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		observability.ImagesUploaded.WithLabelValues("deduplicated").Inc()
		return existing, nil
	}

	jpegRel := filepath.ToSlash(filepath.Join(hash, jpegFileName))
	webpRel := filepath.ToSlash(filepath.Join(hash, webpFileName))
	written := []string{filepath.Join(s.uploadDir, jpegRel), filepath.Join(s.uploadDir, webpRel)}

	if err := writeBytesToFile(written[0], encodedJPEG); err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := writeBytesToFile(written[1], encodedWebP); err != nil {
		cleanupImageFiles(written)
		return nil, models.NewInternalError(err)
	}

	b := normalized.Bounds()
	record := &models.Image{
		Hash:             hash,
		UserID:           in.UserID,
		OriginalFilename: filepath.Base(in.Filename),
		MimeType:         "image/jpeg",
		SizeBytes:        int64(len(encodedJPEG)),
		Width:            b.Dx(),
		Height:           b.Dy(),
		JPEGPath:         jpegRel,
		WebPPath:         webpRel,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		// A concurrent upload of the same bytes owns the files now.
		if errors.Is(err, repository.ErrDuplicate) {
			observability.ImagesUploaded.WithLabelValues("deduplicated").Inc()
			return s.repo.GetByHash(ctx, hash)
		}
		cleanupImageFiles(written)
		return nil, err
	}
	observability.ImagesUploaded.WithLabelValues("stored").Inc()
	return record, nil
}

// Get returns image metadata by hash.
func (s *ImageService) Get(ctx context.Context, hash string) (*models.Image, error) {
	if !isValidImageHash(hash) {
		return nil, models.NewValidationError("Invalid image hash")
	}
	img, err := s.repo.GetByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if img == nil {
		return nil, models.NewNotFoundError("Image", hash)
	}
	return img, nil
}

// URL is the public JPEG location, suitable as a portfolioImage value.
func (s *ImageService) URL(img *models.Image) string {
	return mediaPrefix + "/" + img.JPEGPath
}

// WebPURL is the public WebP location.
func (s *ImageService) WebPURL(img *models.Image) string {
	return mediaPrefix + "/" + img.WebPPath
}

// isValidImageHash checks that the hash is strictly lowercase hex so it can never escape the upload dir.
func isValidImageHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	for _, c := range hash {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
		return src
	}

	scale := min(float64(maxWidth)/float64(w), float64(maxHeight)/float64(h))
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/png", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(mediaType)
}

func imageHash(userID uint, content []byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%d:", userID)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func cleanupImageFiles(paths []string) {
	for _, p := range paths {
		_ = os.Remove(p)
	}
}
