package upload

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/catalog"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

func newTestService(t *testing.T, maxSize int64) (*Service, *gorm.DB, string) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&catalog.Category{}, &catalog.SubCategory{}, &catalog.Product{}))

	cat := catalog.Category{Name: "Vinyl", Slug: "vinyl", IsActive: true}
	require.NoError(t, db.Create(&cat).Error)
	sub := catalog.SubCategory{CategoryID: cat.ID, Name: "SPC", Slug: "spc", IsActive: true}
	require.NoError(t, db.Create(&sub).Error)
	require.NoError(t, db.Create(&catalog.Product{
		SubCategoryID: sub.ID, SKU: "VN-1", Slug: "vn-1", Name: "Stone Grey SPC", Price: 1850, IsActive: true,
	}).Error)

	dir := t.TempDir()
	log, _ := test.NewNullLogger()
	return NewService(db, config.UploadConfig{Dir: dir, URLPrefix: "/uploads", MaxSize: maxSize}, log), db, dir
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	// noise keeps the encoded size close to w*h*4
	rng := rand.New(rand.NewSource(int64(w * h)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(rng.Intn(256)), G: uint8(rng.Intn(256)), B: uint8(rng.Intn(256)), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func stored(dir, url string) string {
	return filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/")))
}

func TestService_UploadProductImage(t *testing.T) {
	svc, db, dir := newTestService(t, 1<<20)
	ctx := context.Background()
	data := pngBytes(t, 40, 30)

	first, err := svc.UploadProductImage(ctx, 1, &ImageUploadRequest{
		File: bytes.NewReader(data), Filename: "../grey.png", Size: int64(len(data)), UploadedBy: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "image/png", first.MimeType)
	assert.Equal(t, 40, first.Width)
	assert.Equal(t, 30, first.Height)
	assert.Equal(t, "grey.png", first.OriginalName)
	assert.True(t, strings.HasPrefix(first.URL, "/uploads/products/1/"))
	assert.FileExists(t, stored(dir, first.URL))

	var p catalog.Product
	require.NoError(t, db.First(&p, 1).Error)
	assert.Equal(t, first.URL, p.Image)

	// replacing removes the old file
	second, err := svc.UploadProductImage(ctx, 1, &ImageUploadRequest{
		File: bytes.NewReader(data), Filename: "grey2.png", Size: int64(len(data)),
	})
	require.NoError(t, err)
	assert.NotEqual(t, first.URL, second.URL)
	assert.NoFileExists(t, stored(dir, first.URL))

	require.NoError(t, svc.DeleteProductImage(ctx, 1))
	assert.NoFileExists(t, stored(dir, second.URL))
	require.NoError(t, db.First(&p, 1).Error)
	assert.Empty(t, p.Image)

	err = svc.DeleteProductImage(ctx, 1)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_UploadProductImageRejects(t *testing.T) {
	svc, _, dir := newTestService(t, 512)
	ctx := context.Background()

	big := pngBytes(t, 200, 200)
	_, err := svc.UploadProductImage(ctx, 1, &ImageUploadRequest{File: bytes.NewReader(big), Size: int64(len(big))})
	assert.True(t, apperror.IsValidation(err), "declared size over limit")

	_, err = svc.UploadProductImage(ctx, 1, &ImageUploadRequest{File: bytes.NewReader(big), Size: 10})
	assert.True(t, apperror.IsValidation(err), "actual size over limit")

	text := []byte("definitely not an image, just some text")
	_, err = svc.UploadProductImage(ctx, 1, &ImageUploadRequest{File: bytes.NewReader(text), Size: int64(len(text))})
	assert.True(t, apperror.IsValidation(err))

	broken := append([]byte{}, pngBytes(t, 2, 2)[:16]...)
	_, err = svc.UploadProductImage(ctx, 1, &ImageUploadRequest{File: bytes.NewReader(broken), Size: int64(len(broken))})
	assert.True(t, apperror.IsValidation(err))

	small := pngBytes(t, 1, 1)
	_, err = svc.UploadProductImage(ctx, 42, &ImageUploadRequest{File: bytes.NewReader(small), Size: int64(len(small))})
	assert.True(t, apperror.IsNotFound(err))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing written for rejected uploads")
}
