// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/domain/cart"
	"github.com/your-org/flooring-store/internal/domain/pricing"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
	log         *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(carts *cart.Service, log *logrus.Logger) *CartHandler {
	return &CartHandler{cartService: carts, log: log}
}

// cartView is the cart plus the bill it would produce at cart checkout
type cartView struct {
	*cart.Summary
	Quote *pricing.Quote `json:"quote"`
}

func (h *CartHandler) respond(c *gin.Context, status int, message string, ct *cart.Cart) {
	quote, err := pricing.Compute(ct.Subtotal(), pricing.PolicyCart)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(status, gin.H{
		"message": message,
		"data":    cartView{Summary: cart.Summarize(ct), Quote: quote},
	})
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ct, err := h.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, "Cart retrieved successfully", ct)
}

// AddToCart handles POST /cart/items
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req cart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ct, err := h.cartService.AddItem(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, "Item added to cart successfully", ct)
}

// UpdateCartItem handles PUT /cart/items/:productId
func (h *CartHandler) UpdateCartItem(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}

	var req cart.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	ct, err := h.cartService.UpdateItem(c.Request.Context(), userID, productID, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, "Cart item updated successfully", ct)
}

// RemoveFromCart handles DELETE /cart/items/:productId
func (h *CartHandler) RemoveFromCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := parseIDParam(c, "productId")
	if !ok {
		return
	}

	ct, err := h.cartService.RemoveItem(c.Request.Context(), userID, productID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, "Item removed from cart successfully", ct)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	ct, err := h.cartService.ClearCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respond(c, http.StatusOK, "Cart cleared successfully", ct)
}
