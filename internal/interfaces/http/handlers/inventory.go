// internal/interfaces/http/handlers/inventory.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/domain/inventory"
)

// InventoryHandler handles admin stock endpoints
type InventoryHandler struct {
	inventoryService *inventory.Service
	log              *logrus.Logger
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(svc *inventory.Service, log *logrus.Logger) *InventoryHandler {
	return &InventoryHandler{inventoryService: svc, log: log}
}

// RecordMovement handles POST /admin/products/:id/stock
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req inventory.StockMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	movement, err := h.inventoryService.RecordMovement(c.Request.Context(), productID, &req, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Stock movement recorded successfully",
		"data":    movement,
	})
}

// GetMovements handles GET /admin/products/:id/stock/movements
func (h *InventoryHandler) GetMovements(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	response, err := h.inventoryService.ListMovements(c.Request.Context(), productID, page, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Stock movements retrieved successfully",
		"data":    response,
	})
}

// GetLowStock handles GET /admin/inventory/low-stock?threshold=10
func (h *InventoryHandler) GetLowStock(c *gin.Context) {
	threshold, _ := strconv.Atoi(c.Query("threshold"))

	products, err := h.inventoryService.LowStock(c.Request.Context(), threshold)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Low stock products retrieved successfully",
		"data":    products,
	})
}
