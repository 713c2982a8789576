// internal/domain/cart/service.go
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/pricing"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// PriceLookup resolves the current catalog price of a product. It returns a
// NotFoundError for unknown or inactive products.
type PriceLookup interface {
	LookupPrice(ctx context.Context, productID uint) (name string, unitPrice int64, err error)
}

// errVersionConflict means another writer saved the cart between our read and write.
var errVersionConflict = errors.New("cart version conflict")

// Service handles cart business logic
type Service struct {
	db     *gorm.DB
	prices PriceLookup
	config *config.Config
	log    *logrus.Logger
}

// NewService creates a new cart service
func NewService(db *gorm.DB, prices PriceLookup, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		db:     db,
		prices: prices,
		config: cfg,
		log:    log,
	}
}

// GetCart returns the owner's cart. A customer who never added anything gets
// an empty, unsaved cart. Drifted totals are logged and repaired.
func (s *Service) GetCart(ctx context.Context, ownerID uint) (*Cart, error) {
	c, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return NewCart(ownerID), nil
	}

	if err := c.Verify(); err != nil {
		s.log.WithFields(logrus.Fields{
			"cart_id":  c.ID,
			"owner_id": ownerID,
			"stored":   c.Total,
		}).WithError(err).Error("cart invariant violated, repairing")

		c.Repair()
		if err := s.save(ctx, c); err != nil && !errors.Is(err, errVersionConflict) {
			return nil, fmt.Errorf("failed to persist repaired cart: %w", err)
		}
	}
	return c, nil
}

// AddItem snapshots the catalog price and adds quantity units to the cart.
func (s *Service) AddItem(ctx context.Context, ownerID uint, req *AddItemRequest) (*Cart, error) {
	if err := pricing.CheckQuantity(req.Quantity); err != nil {
		return nil, err
	}
	name, price, err := s.prices.LookupPrice(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	return s.mutate(ctx, ownerID, true, func(c *Cart) error {
		return c.AddItem(req.ProductID, name, price, req.Quantity)
	})
}

// UpdateItem sets a line's quantity; below one removes the line.
func (s *Service) UpdateItem(ctx context.Context, ownerID, productID uint, req *UpdateItemRequest) (*Cart, error) {
	return s.mutate(ctx, ownerID, false, func(c *Cart) error {
		return c.UpdateItem(productID, req.Quantity)
	})
}

// RemoveItem drops a product from the cart. Absent products are ignored.
func (s *Service) RemoveItem(ctx context.Context, ownerID, productID uint) (*Cart, error) {
	return s.mutate(ctx, ownerID, false, func(c *Cart) error {
		c.RemoveItem(productID)
		return nil
	})
}

// ClearCart empties the cart but keeps the row.
func (s *Service) ClearCart(ctx context.Context, ownerID uint) (*Cart, error) {
	return s.mutate(ctx, ownerID, false, func(c *Cart) error {
		c.Clear()
		return nil
	})
}

// mutate runs fn against a fresh copy of the cart and saves the result
// under an optimistic version check, retrying lost races. create controls
// whether a missing cart is created first.
func (s *Service) mutate(ctx context.Context, ownerID uint, create bool, fn func(*Cart) error) (*Cart, error) {
	attempts := s.config.Cart.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		c, err := s.load(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			if !create {
				c = NewCart(ownerID)
				if err := fn(c); err != nil {
					return nil, err
				}
				return c, nil
			}
			if c, err = s.createEmpty(ctx, ownerID); err != nil {
				return nil, err
			}
		}

		if verr := c.Verify(); verr != nil {
			s.log.WithField("owner_id", ownerID).WithError(verr).Error("cart invariant violated before mutation, repairing")
			c.Repair()
		}
		if err := fn(c); err != nil {
			return nil, err
		}

		err = s.save(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, errVersionConflict) {
			return nil, err
		}

		s.log.WithFields(logrus.Fields{
			"owner_id": ownerID,
			"attempt":  attempt,
		}).Debug("cart version conflict, retrying")
	}

	return nil, apperror.ErrConcurrentUpdate
}

func (s *Service) load(ctx context.Context, ownerID uint) (*Cart, error) {
	var c Cart
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Where("owner_id = ?", ownerID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []LineItem{}
	}
	return &c, nil
}

// createEmpty inserts the owner's cart row, tolerating a concurrent insert.
func (s *Service) createEmpty(ctx context.Context, ownerID uint) (*Cart, error) {
	c := NewCart(ownerID)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "owner_id"}}, DoNothing: true}).
		Omit("Items").
		Create(c).Error
	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	loaded, err := s.load(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if loaded == nil {
		return nil, fmt.Errorf("failed to create cart: row missing after insert")
	}
	return loaded, nil
}

// save writes c if nobody bumped its version since it was read.
func (s *Service) save(ctx context.Context, c *Cart) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Cart{}).
			Where("id = ? AND version = ?", c.ID, c.Version).
			Updates(map[string]interface{}{
				"total":      c.Total,
				"version":    gorm.Expr("version + 1"),
				"updated_at": time.Now().UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errVersionConflict
		}

		if err := tx.Where("cart_id = ?", c.ID).Delete(&LineItem{}).Error; err != nil {
			return err
		}
		if len(c.Items) == 0 {
			return nil
		}
		for i := range c.Items {
			c.Items[i].ID = 0
			c.Items[i].CartID = c.ID
		}
		return tx.Create(&c.Items).Error
	})
	if err != nil {
		if errors.Is(err, errVersionConflict) {
			return err
		}
		return fmt.Errorf("failed to save cart: %w", err)
	}
	c.Version++
	return nil
}
