package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/domain/pricing"
)

// PricingHandler exposes the pricing tables and ad-hoc quotes
type PricingHandler struct {
	log *logrus.Logger
}

// NewPricingHandler creates a new pricing handler
func NewPricingHandler(log *logrus.Logger) *PricingHandler {
	return &PricingHandler{log: log}
}

// GetPolicies handles GET /pricing/policies
func (h *PricingHandler) GetPolicies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Pricing policies retrieved successfully",
		"data":    pricing.Policies(),
	})
}

// GetQuote handles GET /pricing/quote?subtotal=&policy=
func (h *PricingHandler) GetQuote(c *gin.Context) {
	subtotal, err := strconv.ParseInt(c.Query("subtotal"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subtotal must be a whole number of rupees"})
		return
	}
	name, err := pricing.ParsePolicy(c.DefaultQuery("policy", string(pricing.PolicyCart)))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	quote, err := pricing.Compute(subtotal, name)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Quote computed successfully",
		"data":    quote,
	})
}
