// internal/interfaces/http/handlers/order.go
package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/interfaces/http/middleware"
	"github.com/your-org/flooring-store/internal/pkg/pdf"
)

// ReceiptRenderer builds and renders order receipts
type ReceiptRenderer interface {
	Receipt(o *order.Order, p *order.Payment) *pdf.ReceiptData
	GeneratePDF(data *pdf.ReceiptData) (*bytes.Buffer, error)
}

// OrderHandler handles customer and admin order endpoints
type OrderHandler struct {
	orderService *order.Service
	receipts     ReceiptRenderer
	log          *logrus.Logger
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *order.Service, receipts ReceiptRenderer, log *logrus.Logger) *OrderHandler {
	return &OrderHandler{orderService: orders, receipts: receipts, log: log}
}

// CancelOrderRequest is the body of a cancellation
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// UpdateStatusRequest is the body of an admin status change
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Comment string `json:"comment" binding:"max=500"`
}

// GetOrders handles GET /orders
func (h *OrderHandler) GetOrders(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.orderService.ListOwnerOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// GetOrder handles GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	o, ok := h.ownedOrder(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data":    o,
	})
}

// CancelOrder handles PUT /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req CancelOrderRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	o, err := h.orderService.Cancel(c.Request.Context(), orderID, userID, req.Reason)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order cancelled successfully",
		"data":    o,
	})
}

// GetReceipt handles GET /orders/:id/receipt and streams a PDF
func (h *OrderHandler) GetReceipt(c *gin.Context) {
	data, ok := h.receiptData(c)
	if !ok {
		return
	}

	buf, err := h.receipts.GeneratePDF(data)
	if err != nil {
		respondError(c, h.log, fmt.Errorf("failed to generate receipt: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%s.pdf", data.OrderNumber))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// GetReceiptData handles GET /orders/:id/receipt/data for on-screen previews
func (h *OrderHandler) GetReceiptData(c *gin.Context) {
	data, ok := h.receiptData(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Receipt data retrieved successfully",
		"data":    data,
	})
}

func (h *OrderHandler) receiptData(c *gin.Context) (*pdf.ReceiptData, bool) {
	o, ok := h.ownedOrder(c)
	if !ok {
		return nil, false
	}
	p, err := h.orderService.GetPayment(c.Request.Context(), o)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return h.receipts.Receipt(o, p), true
}

// ownedOrder loads the order in the path, scoped to the caller
func (h *OrderHandler) ownedOrder(c *gin.Context) (*order.Order, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return nil, false
	}

	o, err := h.orderService.GetOrder(c.Request.Context(), orderID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return nil, false
	}
	return o, true
}

// AdminGetOrders handles GET /admin/orders
func (h *OrderHandler) AdminGetOrders(c *gin.Context) {
	var req order.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid query parameters",
			"details": err.Error(),
		})
		return
	}

	response, err := h.orderService.ListOrders(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Orders retrieved successfully",
		"data":    response,
	})
}

// AdminGetOrder handles GET /admin/orders/:id
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	o, err := h.orderService.GetOrderForAdmin(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	p, err := h.orderService.GetPayment(c.Request.Context(), o)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order retrieved successfully",
		"data": gin.H{
			"order":   o,
			"payment": p,
		},
	})
}

// AdminUpdateStatus handles PUT /admin/orders/:id/status
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	actor := order.Actor{UserID: userID, IsAdmin: middleware.IsAdminFromContext(c)}

	o, err := h.orderService.Advance(c.Request.Context(), orderID, order.OrderStatus(req.Status), actor, req.Comment)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Order status updated successfully",
		"data":    o,
	})
}
