// internal/interfaces/http/handlers/upload.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/domain/upload"
)

// UploadHandler handles product image uploads
type UploadHandler struct {
	uploadService *upload.Service
	log           *logrus.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(svc *upload.Service, log *logrus.Logger) *UploadHandler {
	return &UploadHandler{uploadService: svc, log: log}
}

// UploadProductImage handles POST /admin/products/:id/image (multipart field "image")
func (h *UploadHandler) UploadProductImage(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No image file provided",
		})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read upload",
		})
		return
	}
	defer file.Close()

	img, err := h.uploadService.UploadProductImage(c.Request.Context(), productID, &upload.ImageUploadRequest{
		File:       file,
		Filename:   header.Filename,
		Size:       header.Size,
		UploadedBy: userID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Image uploaded successfully",
		"data":    img,
	})
}

// DeleteProductImage handles DELETE /admin/products/:id/image
func (h *UploadHandler) DeleteProductImage(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.uploadService.DeleteProductImage(c.Request.Context(), productID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
