// internal/domain/checkout/service.go
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/cart"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/pricing"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

const idemPending = "pending"

// CartStore is the part of the cart service checkout needs
type CartStore interface {
	GetCart(ctx context.Context, ownerID uint) (*cart.Cart, error)
	ClearCart(ctx context.Context, ownerID uint) (*cart.Cart, error)
}

// OrderPlacer is the part of the order service checkout needs
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, in order.PlaceOrderInput) (*order.Order, error)
	GetOrder(ctx context.Context, orderID, ownerID uint) (*order.Order, error)
}

// Service handles checkout business logic
type Service struct {
	sessions *sessionStore
	rdb      *redis.Client
	carts    CartStore
	orders   OrderPlacer
	prices   cart.PriceLookup
	config   *config.Config
	log      *logrus.Logger
}

// NewService creates a new checkout service
func NewService(rdb *redis.Client, carts CartStore, orders OrderPlacer, prices cart.PriceLookup, cfg *config.Config, log *logrus.Logger) *Service {
	return &Service{
		sessions: &sessionStore{rdb: rdb},
		rdb:      rdb,
		carts:    carts,
		orders:   orders,
		prices:   prices,
		config:   cfg,
		log:      log,
	}
}

// StartRequest represents the address step of checkout
type StartRequest struct {
	Mode      string                `json:"mode"`
	ProductID uint                  `json:"product_id"`
	Quantity  int                   `json:"quantity"`
	Address   order.ShippingAddress `json:"shipping_address"`
}

// ConfirmRequest represents the payment step of checkout
type ConfirmRequest struct {
	SessionID      string `json:"-"`
	PaymentMode    string `json:"payment_mode" binding:"required"`
	IdempotencyKey string `json:"idempotency_key"`
}

// Result is the outcome of a confirmation. Duplicate is set when the same
// idempotency key or the same session already produced this order.
type Result struct {
	Order     *order.Order `json:"order"`
	Duplicate bool         `json:"duplicate"`
}

// Start validates the address, prices the items and stores a session.
func (s *Service) Start(ctx context.Context, ownerID uint, req *StartRequest) (*Session, error) {
	mode, err := ParseMode(req.Mode)
	if err != nil {
		return nil, err
	}
	if err := req.Address.Validate(); err != nil {
		return nil, err
	}

	var items []cart.LineItem
	switch mode {
	case ModeCart:
		c, err := s.carts.GetCart(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		if c.IsEmpty() {
			return nil, apperror.Validation("cart is empty")
		}
		items = append(items, c.Items...)
	case ModeBuyNow:
		if req.ProductID == 0 {
			return nil, apperror.Validation("product_id is required for buy now")
		}
		if err := pricing.CheckQuantity(req.Quantity); err != nil {
			return nil, err
		}
		name, price, err := s.prices.LookupPrice(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		line, err := pricing.LineTotal(price, req.Quantity)
		if err != nil {
			return nil, err
		}
		items = []cart.LineItem{{
			ProductID:   req.ProductID,
			ProductName: name,
			UnitPrice:   price,
			Quantity:    req.Quantity,
			LineTotal:   line,
			CreatedAt:   time.Now().UTC(),
		}}
	}

	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Mode:      mode,
		Items:     items,
		Address:   req.Address,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.Checkout.SessionTTL),
	}

	subtotal, err := sess.Subtotal()
	if err != nil {
		return nil, err
	}
	quote, err := pricing.Compute(subtotal, mode.Policy())
	if err != nil {
		return nil, err
	}
	review, err := pricing.Compute(subtotal, pricing.PolicyReview)
	if err != nil {
		return nil, err
	}
	sess.Quote = *quote
	sess.Review = *review

	if err := s.sessions.save(ctx, sess, s.config.Checkout.SessionTTL); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"session_id": sess.ID,
		"owner_id":   ownerID,
		"mode":       mode,
		"net":        quote.NetPayable,
	}).Info("checkout session started")
	return sess, nil
}

// Get returns the owner's session. Someone else's session is reported as missing.
func (s *Service) Get(ctx context.Context, ownerID uint, sessionID string) (*Session, error) {
	sess, err := s.sessions.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OwnerID != ownerID {
		return nil, apperror.NotFound("checkout session", sessionID)
	}
	return sess, nil
}

// Confirm places the order for a session exactly once. Both the
// idempotency key and the session are claimed first, so neither a retried
// request nor a second confirmation of the same session can place another
// order.
func (s *Service) Confirm(ctx context.Context, ownerID uint, req *ConfirmRequest) (*Result, error) {
	key := strings.TrimSpace(req.IdempotencyKey)
	if key == "" {
		return nil, apperror.Validation("idempotency key is required")
	}
	if len(key) > 100 {
		return nil, apperror.Validation("idempotency key is too long")
	}
	mode, ok := order.ParsePaymentMode(req.PaymentMode)
	if !ok {
		return nil, apperror.Validation("unsupported payment mode %q", req.PaymentMode)
	}

	ttl := s.config.Checkout.IdempotencyTTL
	idemKey := idempotencyKey(ownerID, key)
	claimed, err := s.rdb.SetNX(ctx, idemKey, idemPending, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if !claimed {
		return s.replay(ctx, ownerID, idemKey)
	}

	lockKey := sessionLockKey(req.SessionID)
	locked, err := s.rdb.SetNX(ctx, lockKey, idemPending, ttl).Result()
	if err != nil {
		s.release(ctx, ownerID, idemKey)
		return nil, fmt.Errorf("failed to claim checkout session: %w", err)
	}
	if !locked {
		s.release(ctx, ownerID, idemKey)
		return s.replay(ctx, ownerID, lockKey)
	}

	placed, err := s.place(ctx, ownerID, req.SessionID, mode, key)
	if err != nil {
		s.release(ctx, ownerID, idemKey, lockKey)
		return nil, err
	}

	orderID := strconv.FormatUint(uint64(placed.ID), 10)
	for _, k := range []string{idemKey, lockKey} {
		if err := s.rdb.Set(ctx, k, orderID, ttl).Err(); err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id": placed.ID,
				"key":      k,
			}).WithError(err).Error("failed to record checkout outcome")
		}
	}
	if err := s.sessions.delete(ctx, req.SessionID); err != nil {
		s.log.WithField("session_id", req.SessionID).WithError(err).Warn("failed to delete checkout session")
	}

	return &Result{Order: placed}, nil
}

// release frees claims so the customer can retry after a failure
func (s *Service) release(ctx context.Context, ownerID uint, keys ...string) {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		s.log.WithField("owner_id", ownerID).WithError(err).Error("failed to release checkout claims")
	}
}

func (s *Service) place(ctx context.Context, ownerID uint, sessionID string, mode order.PaymentMode, key string) (*order.Order, error) {
	sess, err := s.Get(ctx, ownerID, sessionID)
	if err != nil {
		return nil, err
	}

	placed, err := s.orders.PlaceOrder(ctx, order.PlaceOrderInput{
		OwnerID:        ownerID,
		Items:          sess.orderItems(),
		Address:        sess.Address,
		Quote:          sess.Quote,
		PaymentMode:    mode,
		IdempotencyKey: key,
	})
	if err != nil {
		return nil, err
	}

	if sess.Mode == ModeCart {
		if _, err := s.carts.ClearCart(ctx, ownerID); err != nil {
			s.log.WithFields(logrus.Fields{
				"owner_id": ownerID,
				"order_id": placed.ID,
			}).WithError(err).Error("order placed but cart could not be cleared")
		}
	}
	return placed, nil
}

// replay answers a repeated confirmation from the outcome recorded under claim
func (s *Service) replay(ctx context.Context, ownerID uint, claim string) (*Result, error) {
	val, err := s.rdb.Get(ctx, claim).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// released between our SETNX and GET; the first attempt failed
			return nil, apperror.ErrCheckoutInProgress
		}
		return nil, fmt.Errorf("failed to read checkout claim: %w", err)
	}
	if val == idemPending {
		return nil, apperror.ErrCheckoutInProgress
	}

	orderID, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return nil, apperror.Inconsistent("checkout claim", "unexpected value %q", val)
	}
	o, err := s.orders.GetOrder(ctx, uint(orderID), ownerID)
	if err != nil {
		return nil, err
	}
	return &Result{Order: o, Duplicate: true}, nil
}

// Preview prices a subtotal without touching any session
func (s *Service) Preview(subtotal int64, policy string) (*pricing.Quote, error) {
	name, err := pricing.ParsePolicy(policy)
	if err != nil {
		return nil, err
	}
	return pricing.Compute(subtotal, name)
}
