package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/domain/feedback"
)

// FeedbackHandler handles feedback endpoints
type FeedbackHandler struct {
	feedbackService *feedback.Service
	log             *logrus.Logger
}

// NewFeedbackHandler creates a new feedback handler
func NewFeedbackHandler(svc *feedback.Service, log *logrus.Logger) *FeedbackHandler {
	return &FeedbackHandler{feedbackService: svc, log: log}
}

// Submit handles POST /feedback
func (h *FeedbackHandler) Submit(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req feedback.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	fb, err := h.feedbackService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Thank you for your feedback",
		"data":    fb,
	})
}

// AdminList handles GET /admin/feedback
func (h *FeedbackHandler) AdminList(c *gin.Context) {
	var req feedback.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.feedbackService.List(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Feedback retrieved successfully",
		"data":    response,
	})
}

// AdminDelete handles DELETE /admin/feedback/:id
func (h *FeedbackHandler) AdminDelete(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.feedbackService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback deleted successfully"})
}
