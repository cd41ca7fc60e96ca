package service

import (
	"context"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ratefolio/internal/config"
	"ratefolio/internal/models"
	"ratefolio/internal/repository"
	"ratefolio/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestImageService(t *testing.T, repo repository.ImageRepository) *ImageService {
	t.Helper()
	return NewImageService(repo, &config.Config{ImageUploadDir: t.TempDir(), ImageMaxUploadSizeMB: 1})
}

func TestImageServiceUploadStoresBothFormats(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	user := testutil.CreateUser(t, db, "ada")
	svc := newTestImageService(t, repository.NewImageRepository(db))

	img, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:      user.ID,
		Filename:    "../../shot.png",
		ContentType: "image/png",
		Content:     testutil.PNGBytes(t, 64, 32),
	})
	require.NoError(t, err)
	assert.Equal(t, "shot.png", img.OriginalFilename)
	assert.Equal(t, 64, img.Width)
	assert.Equal(t, 32, img.Height)
	assert.True(t, isValidImageHash(img.Hash))

	for _, rel := range []string{img.JPEGPath, img.WebPPath} {
		info, err := os.Stat(filepath.Join(svc.UploadDir(), rel))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Equal(t, "/media/"+img.Hash+"/image.jpg", svc.URL(img))
	assert.True(t, strings.HasSuffix(svc.WebPURL(img), ".webp"))

	again, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:  user.ID,
		Content: testutil.PNGBytes(t, 64, 32),
	})
	require.NoError(t, err)
	assert.Equal(t, img.ID, again.ID)

	got, err := svc.Get(context.Background(), img.Hash)
	require.NoError(t, err)
	assert.Equal(t, img.ID, got.ID)
}

func TestImageServiceUploadResizesLargeImages(t *testing.T) {
	svc := newTestImageService(t, noopImageRepo())

	img, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:  1,
		Content: testutil.PNGBytes(t, 3200, 800),
	})
	require.NoError(t, err)
	assert.Equal(t, MaxImageEdge, img.Width)
	assert.Equal(t, 400, img.Height)
}

func TestImageServiceUploadRejects(t *testing.T) {
	svc := newTestImageService(t, noopImageRepo())
	png := testutil.PNGBytes(t, 8, 8)

	tests := []struct {
		name string
		in   UploadImageInput
		code string
	}{
		{"anonymous", UploadImageInput{Content: png}, models.CodeUnauthenticated},
		{"empty", UploadImageInput{UserID: 1}, models.CodeValidation},
		{"not an image", UploadImageInput{UserID: 1, Content: []byte("hello world, plain text")}, models.CodeValidation},
		{"type mismatch", UploadImageInput{UserID: 1, ContentType: "image/jpeg", Content: png}, models.CodeValidation},
		{"too large", UploadImageInput{UserID: 1, Content: make([]byte, 2*1024*1024)}, models.CodeValidation},
		{"declared dimensions too large", UploadImageInput{UserID: 1, Content: withPNGDimensions(t, png, 40000, 40000)}, models.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tt.in)
			assertAppError(t, err, tt.code)
		})
	}
}

// withPNGDimensions rewrites the IHDR chunk so the header declares w x h.
func withPNGDimensions(t *testing.T, src []byte, w, h uint32) []byte {
	t.Helper()
	require.Greater(t, len(src), 33)
	out := append([]byte(nil), src...)
	require.Equal(t, "IHDR", string(out[12:16]))
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestImageServiceUploadDimensionLimit(t *testing.T) {
	svc := newTestImageService(t, noopImageRepo())

	_, err := svc.Upload(context.Background(), UploadImageInput{
		UserID:  1,
		Content: withPNGDimensions(t, testutil.PNGBytes(t, 1, 1), 4*MaxImageEdge+1, 4*MaxImageEdge),
	})
	assertAppError(t, err, models.CodeValidation)
	assert.Contains(t, err.Error(), "dimensions")
}

func TestImageServiceGetValidatesHash(t *testing.T) {
	svc := newTestImageService(t, noopImageRepo())

	_, err := svc.Get(context.Background(), "../etc/passwd")
	assertAppError(t, err, models.CodeValidation)

	_, err = svc.Get(context.Background(), strings.Repeat("a", 64))
	assertAppError(t, err, models.CodeNotFound)
}

func TestImageServiceDefaults(t *testing.T) {
	svc := NewImageService(noopImageRepo(), nil)
	assert.Equal(t, DefaultImageUploadDir, svc.UploadDir())
	assert.EqualValues(t, DefaultImageMaxUploadSizeMB*1024*1024, svc.MaxUploadBytes())
}
