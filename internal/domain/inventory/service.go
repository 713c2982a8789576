// internal/domain/inventory/service.go
package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/domain/catalog"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
	"github.com/your-org/flooring-store/internal/pkg/pagination"
)

// DefaultLowStockThreshold is used when the caller does not pass one
const DefaultLowStockThreshold = 10

// Service records stock changes against catalog products. It is an admin
// ledger only; carts and checkout never consult it.
type Service struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewService creates a new inventory service
func NewService(db *gorm.DB, log *logrus.Logger) *Service {
	return &Service{db: db, log: log}
}

// StockMovementRequest represents a stock change
type StockMovementRequest struct {
	MovementType MovementType   `json:"movement_type" binding:"required"`
	Reason       MovementReason `json:"reason" binding:"required"`
	Quantity     int            `json:"quantity" binding:"min=0"`
	Reference    string         `json:"reference" binding:"max=100"`
	Notes        string         `json:"notes"`
}

// MovementListResponse is a page of movements for one product
type MovementListResponse struct {
	Movements  []StockMovement       `json:"movements"`
	Pagination pagination.Pagination `json:"pagination"`
}

func (r *StockMovementRequest) validate() error {
	reasons, ok := validReasons[r.MovementType]
	if !ok {
		return apperror.Validation("invalid movement type %q", r.MovementType)
	}
	found := false
	for _, reason := range reasons {
		if reason == r.Reason {
			found = true
			break
		}
	}
	if !found {
		return apperror.Validation("reason %q does not apply to %s movements", r.Reason, r.MovementType)
	}
	if r.Quantity < 1 && r.MovementType != MovementTypeAdjustment {
		return apperror.Validation("quantity must be at least 1, got %d", r.Quantity)
	}
	if r.Quantity < 0 {
		return apperror.Validation("quantity cannot be negative")
	}
	return nil
}

// RecordMovement applies a stock change and writes it to the ledger.
// Outbound movements never take stock below zero.
func (s *Service) RecordMovement(ctx context.Context, productID uint, req *StockMovementRequest, userID uint) (*StockMovement, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var movement *StockMovement
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product catalog.Product
		if err := tx.Select("id", "stock").First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("product", productID)
			}
			return fmt.Errorf("failed to find product: %w", err)
		}

		previous := product.Stock
		next := previous
		switch req.MovementType {
		case MovementTypeInbound:
			next = previous + req.Quantity
		case MovementTypeOutbound:
			if previous < req.Quantity {
				return apperror.Validation("insufficient stock: available %d, requested %d", previous, req.Quantity)
			}
			next = previous - req.Quantity
		case MovementTypeAdjustment:
			next = req.Quantity
		}

		// compare-and-set on the level we read
		res := tx.Model(&catalog.Product{}).
			Where("id = ? AND stock = ?", productID, previous).
			Update("stock", next)
		if res.Error != nil {
			return fmt.Errorf("failed to update stock: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.ErrConcurrentUpdate
		}

		movement = &StockMovement{
			ProductID:        productID,
			MovementType:     req.MovementType,
			Reason:           req.Reason,
			Quantity:         req.Quantity,
			PreviousQuantity: previous,
			NewQuantity:      next,
			Reference:        req.Reference,
			Notes:            req.Notes,
			CreatedBy:        userID,
		}
		if err := tx.Create(movement).Error; err != nil {
			return fmt.Errorf("failed to record movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"product_id": productID,
		"type":       movement.MovementType,
		"delta":      movement.Delta(),
		"stock":      movement.NewQuantity,
		"user_id":    userID,
	})
	if movement.NewQuantity <= DefaultLowStockThreshold {
		entry.Warn("stock low after movement")
	} else {
		entry.Info("stock movement recorded")
	}
	return movement, nil
}

// ListMovements returns a product's ledger, newest first
func (s *Service) ListMovements(ctx context.Context, productID uint, page, limit int) (*MovementListResponse, error) {
	page, limit = pagination.Normalize(page, limit)
	query := s.db.WithContext(ctx).Model(&StockMovement{}).Where("product_id = ?", productID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count movements: %w", err)
	}

	movements := []StockMovement{}
	if err := query.Order("created_at DESC, id DESC").
		Offset(pagination.Offset(page, limit)).Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve movements: %w", err)
	}

	return &MovementListResponse{
		Movements:  movements,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// LowStock lists active products at or below threshold, lowest first
func (s *Service) LowStock(ctx context.Context, threshold int) ([]catalog.Product, error) {
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	products := []catalog.Product{}
	if err := s.db.WithContext(ctx).
		Where("is_active = ? AND stock <= ?", true, threshold).
		Order("stock ASC, id ASC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve low stock products: %w", err)
	}
	return products, nil
}
