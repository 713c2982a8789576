// internal/domain/upload/service.go
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // register decoders for DecodeConfig
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/catalog"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
}

const maxDimension = 6000

// Service stores product images on local disk and links them to products
type Service struct {
	db     *gorm.DB
	config config.UploadConfig
	log    *logrus.Logger
}

// NewService creates a new upload service
func NewService(db *gorm.DB, cfg config.UploadConfig, log *logrus.Logger) *Service {
	return &Service{db: db, config: cfg, log: log}
}

// ImageUploadRequest is one uploaded product image
type ImageUploadRequest struct {
	File       io.Reader
	Filename   string
	Size       int64
	UploadedBy uint
}

// UploadedImage describes a stored image
type UploadedImage struct {
	ProductID    uint   `json:"product_id"`
	URL          string `json:"url"`
	MimeType     string `json:"mime_type"`
	Size         int64  `json:"size"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	OriginalName string `json:"original_name"`
}

// UploadProductImage validates the image, writes it to disk and points the
// product at it. The previous image file, if any, is removed.
func (s *Service) UploadProductImage(ctx context.Context, productID uint, req *ImageUploadRequest) (*UploadedImage, error) {
	if req.Size > s.config.MaxSize {
		return nil, apperror.Validation("image is %d bytes, the limit is %d", req.Size, s.config.MaxSize)
	}

	data, err := io.ReadAll(io.LimitReader(req.File, s.config.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > s.config.MaxSize {
		return nil, apperror.Validation("image exceeds the %d byte limit", s.config.MaxSize)
	}

	mimeType := http.DetectContentType(data)
	ext, ok := allowedTypes[mimeType]
	if !ok {
		return nil, apperror.Validation("unsupported image type %q, use JPEG or PNG", mimeType)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperror.Validation("image could not be decoded")
	}
	if cfg.Width > maxDimension || cfg.Height > maxDimension {
		return nil, apperror.Validation("image is %dx%d, the limit is %dx%d", cfg.Width, cfg.Height, maxDimension, maxDimension)
	}

	var product catalog.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", productID)
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	relative := path.Join("products", fmt.Sprint(productID), uuid.NewString()+ext)
	full := filepath.Join(s.config.Dir, filepath.FromSlash(relative))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	url := s.url(relative)
	if err := s.db.WithContext(ctx).Model(&product).Update("image", url).Error; err != nil {
		os.Remove(full)
		return nil, fmt.Errorf("failed to link image: %w", err)
	}
	s.removeStored(product.Image)

	s.log.WithFields(logrus.Fields{
		"product_id":  productID,
		"url":         url,
		"size":        len(data),
		"uploaded_by": req.UploadedBy,
	}).Info("product image uploaded")

	return &UploadedImage{
		ProductID:    productID,
		URL:          url,
		MimeType:     mimeType,
		Size:         int64(len(data)),
		Width:        cfg.Width,
		Height:       cfg.Height,
		OriginalName: filepath.Base(req.Filename),
	}, nil
}

// DeleteProductImage unlinks and removes a product's image
func (s *Service) DeleteProductImage(ctx context.Context, productID uint) error {
	var product catalog.Product
	if err := s.db.WithContext(ctx).First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("product", productID)
		}
		return fmt.Errorf("failed to find product: %w", err)
	}
	if product.Image == "" {
		return apperror.Validation("product has no image")
	}
	if err := s.db.WithContext(ctx).Model(&product).Update("image", "").Error; err != nil {
		return fmt.Errorf("failed to unlink image: %w", err)
	}
	s.removeStored(product.Image)
	return nil
}

func (s *Service) url(relative string) string {
	return strings.TrimSuffix(s.config.URLPrefix, "/") + "/" + relative
}

// removeStored deletes a file this service wrote. External URLs are left alone.
func (s *Service) removeStored(url string) {
	prefix := strings.TrimSuffix(s.config.URLPrefix, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return
	}
	relative := path.Clean(strings.TrimPrefix(url, prefix))
	if strings.HasPrefix(relative, "..") {
		return
	}
	full := filepath.Join(s.config.Dir, filepath.FromSlash(relative))
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		s.log.WithField("path", full).WithError(err).Warn("failed to remove old image")
	}
}
