// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/domain/checkout"
)

// IdempotencyKeyHeader carries the client's key for order confirmation
const IdempotencyKeyHeader = "Idempotency-Key"

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	log             *logrus.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(svc *checkout.Service, log *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: svc, log: log}
}

// StartCheckout handles POST /checkout/sessions
func (h *CheckoutHandler) StartCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req checkout.StartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	sess, err := h.checkoutService.Start(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Checkout session created",
		"data":    sess,
	})
}

// GetSession handles GET /checkout/sessions/:id
func (h *CheckoutHandler) GetSession(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	sess, err := h.checkoutService.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout session retrieved successfully",
		"data":    sess,
	})
}

// Confirm handles POST /checkout/sessions/:id/confirm. The Idempotency-Key
// header wins over the body field.
func (h *CheckoutHandler) Confirm(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req checkout.ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	req.SessionID = c.Param("id")
	if key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)); key != "" {
		req.IdempotencyKey = key
	}

	result, err := h.checkoutService.Confirm(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if result.Duplicate {
		c.JSON(http.StatusOK, gin.H{
			"message": "Order already placed for this idempotency key",
			"data":    result,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"data":    result,
	})
}
