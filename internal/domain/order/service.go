// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/pricing"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
	"github.com/your-org/flooring-store/internal/pkg/pagination"
)

// Service handles order business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
	events EventPublisher
	log    *logrus.Logger
}

// NewService creates a new order service. A nil publisher discards events.
func NewService(db *gorm.DB, cfg *config.Config, events EventPublisher, log *logrus.Logger) *Service {
	if events == nil {
		events = NoopPublisher{}
	}
	return &Service{
		db:     db,
		config: cfg,
		events: events,
		log:    log,
	}
}

// ItemInput is one line to be frozen into an order
type ItemInput struct {
	ProductID   uint
	ProductName string
	UnitPrice   int64
	Quantity    int
}

// PlaceOrderInput carries everything checkout has already priced
type PlaceOrderInput struct {
	OwnerID        uint
	Items          []ItemInput
	Address        ShippingAddress
	Quote          pricing.Quote
	PaymentMode    PaymentMode
	IdempotencyKey string
}

// Actor identifies who is changing an order
type Actor struct {
	UserID  uint
	IsAdmin bool
}

// ListRequest represents admin order list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status string `form:"status"`
}

// ListResponse represents orders with pagination
type ListResponse struct {
	Orders     []Order               `json:"orders"`
	Pagination pagination.Pagination `json:"pagination"`
}

// PlaceOrder writes the payment, the order and the back reference in one
// transaction. Either all three land or none do.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*Order, error) {
	if err := s.validatePlacement(&in); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	currency := s.currency()
	items := make([]OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		items = append(items, OrderItem{
			ProductID:    it.ProductID,
			ProductName:  it.ProductName,
			PricePerUnit: it.UnitPrice,
			Units:        it.Quantity,
			TotalAmount:  it.UnitPrice * int64(it.Quantity),
		})
	}

	var order Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment := Payment{
			OrderID:     0,
			OwnerID:     in.OwnerID,
			PaymentMode: in.PaymentMode,
			Amount:      in.Quote.NetPayable,
			Currency:    currency,
			Status:      InitialPaymentStatus(in.PaymentMode),
			PaymentDate: now,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		order = Order{
			OrderNumber:     "TMP-" + uuid.NewString(),
			OwnerID:         in.OwnerID,
			Status:          OrderStatusPending,
			Policy:          in.Quote.Policy,
			PaymentMode:     in.PaymentMode,
			PaymentID:       payment.ID,
			IdempotencyKey:  in.IdempotencyKey,
			Subtotal:        in.Quote.Subtotal,
			DiscountPercent: in.Quote.DiscountPercent,
			DiscountAmount:  in.Quote.DiscountAmount,
			ShippingCharge:  in.Quote.ShippingCharge,
			NetBill:         in.Quote.NetPayable,
			Currency:        currency,
			ShippingAddress: in.Address,
			Items:           items,
			StatusHistory: []OrderStatusHistory{{
				ToStatus:  OrderStatusPending,
				Comment:   "Order placed",
				ChangedBy: in.OwnerID,
			}},
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		order.OrderNumber = GenerateOrderNumber(order.ID, now)
		if err := tx.Model(&Order{}).Where("id = ?", order.ID).
			Update("order_number", order.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to assign order number: %w", err)
		}

		res := tx.Model(&Payment{}).Where("id = ? AND order_id = ?", payment.ID, 0).
			Update("order_id", order.ID)
		if res.Error != nil {
			return fmt.Errorf("failed to link payment: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			return apperror.Inconsistent("payment", "payment %d was already linked", payment.ID)
		}
		return nil
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"owner_id":     in.OwnerID,
			"net_bill":     in.Quote.NetPayable,
			"payment_mode": in.PaymentMode,
		}).WithError(err).Error("order placement rolled back")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"owner_id":     order.OwnerID,
		"net_bill":     order.NetBill,
	}).Info("order placed")

	// committed: answer from the rows just written, never an error
	s.publish(ctx, newEvent(EventOrderCreated, &order, ""))
	return &order, nil
}

// validatePlacement rejects input whose lines and quote disagree. Nothing
// is written when this fails.
func (s *Service) validatePlacement(in *PlaceOrderInput) error {
	if in.OwnerID == 0 {
		return apperror.Validation("order owner is required")
	}
	if len(in.Items) == 0 {
		return apperror.Validation("order must contain at least one item")
	}
	switch in.PaymentMode {
	case PaymentModeCOD, PaymentModeNetBanking, PaymentModeUPI:
	default:
		return apperror.Validation("unsupported payment mode %q", in.PaymentMode)
	}
	if err := in.Address.Validate(); err != nil {
		return err
	}

	totals := make([]int64, 0, len(in.Items))
	for _, it := range in.Items {
		if it.UnitPrice < 0 {
			return apperror.Inconsistent("order", "negative unit price for product %d", it.ProductID)
		}
		line, err := pricing.LineTotal(it.UnitPrice, it.Quantity)
		if err != nil {
			return fmt.Errorf("product %d: %w", it.ProductID, err)
		}
		totals = append(totals, line)
	}
	sum, err := pricing.SumAmounts(totals...)
	if err != nil {
		return err
	}
	if sum != in.Quote.Subtotal {
		return apperror.Inconsistent("order", "items total %d does not match quoted subtotal %d", sum, in.Quote.Subtotal)
	}
	return in.Quote.Check()
}

// Cancel moves the owner's pending order to cancel and voids its payment.
func (s *Service) Cancel(ctx context.Context, orderID, ownerID uint, reason string) (*Order, error) {
	order, err := s.GetOrder(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := checkCancel(order); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "Cancelled by customer"
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := moveStatus(tx, order, OrderStatusCancel, map[string]interface{}{
			"cancelled_at":  now,
			"cancel_reason": reason,
		}); err != nil {
			return err
		}
		if err := tx.Model(&Payment{}).Where("id = ?", order.PaymentID).
			Update("status", PaymentStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel payment: %w", err)
		}
		return recordHistory(tx, order.ID, OrderStatusPending, OrderStatusCancel, reason, ownerID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": orderID, "owner_id": ownerID}).Info("order cancelled")
	updated, err := s.GetOrder(ctx, orderID, ownerID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, newEvent(EventOrderStatusChanged, updated, OrderStatusPending))
	return updated, nil
}

// Advance moves an order forward along pending → arriving → delivered.
func (s *Service) Advance(ctx context.Context, orderID uint, to OrderStatus, actor Actor, comment string) (*Order, error) {
	if !actor.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	order, err := s.GetOrderForAdmin(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := checkAdvance(order, to); err != nil {
		return nil, err
	}

	from := order.Status
	now := time.Now().UTC()
	extra := map[string]interface{}{}
	switch to {
	case OrderStatusArriving:
		extra["arriving_at"] = now
	case OrderStatusDelivered:
		extra["delivered_at"] = now
	}
	if comment == "" {
		comment = fmt.Sprintf("Status changed from %s to %s", from, to)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := moveStatus(tx, order, to, extra); err != nil {
			return err
		}
		// cash is collected on delivery
		if to == OrderStatusDelivered && order.PaymentMode == PaymentModeCOD {
			if err := tx.Model(&Payment{}).Where("id = ?", order.PaymentID).
				Update("status", PaymentStatusConfirmed).Error; err != nil {
				return fmt.Errorf("failed to confirm payment: %w", err)
			}
		}
		return recordHistory(tx, order.ID, from, to, comment, actor.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"order_id": orderID,
		"from":     from,
		"to":       to,
		"admin_id": actor.UserID,
	}).Info("order status advanced")

	updated, err := s.GetOrderForAdmin(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, newEvent(EventOrderStatusChanged, updated, from))
	return updated, nil
}

// moveStatus is a compare-and-set on the status column, so two racing
// transitions cannot both win.
func moveStatus(tx *gorm.DB, order *Order, to OrderStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	for k, v := range extra {
		updates[k] = v
	}

	res := tx.Model(&Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		var current Order
		if err := tx.Select("status").Where("id = ?", order.ID).First(&current).Error; err != nil {
			return fmt.Errorf("failed to reload order status: %w", err)
		}
		reason := ""
		if to == OrderStatusCancel {
			reason = msgCannotCancel
		}
		return &apperror.InvalidTransitionError{From: string(current.Status), To: string(to), Reason: reason}
	}
	return nil
}

func recordHistory(tx *gorm.DB, orderID uint, from, to OrderStatus, comment string, by uint) error {
	h := OrderStatusHistory{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		Comment:    comment,
		ChangedBy:  by,
	}
	if err := tx.Create(&h).Error; err != nil {
		return fmt.Errorf("failed to record status history: %w", err)
	}
	return nil
}

// GetOrder retrieves one of the owner's orders. Other customers' orders
// are reported as not found.
func (s *Service) GetOrder(ctx context.Context, orderID, ownerID uint) (*Order, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("id = ? AND owner_id = ?", orderID, ownerID), orderID)
}

// GetOrderForAdmin retrieves any order
func (s *Service) GetOrderForAdmin(ctx context.Context, orderID uint) (*Order, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("id = ?", orderID), orderID)
}

// GetOrderByIdempotencyKey finds the order a checkout attempt produced
func (s *Service) GetOrderByIdempotencyKey(ctx context.Context, ownerID uint, key string) (*Order, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("owner_id = ? AND idempotency_key = ?", ownerID, key), key)
}

func (s *Service) find(ctx context.Context, query *gorm.DB, id interface{}) (*Order, error) {
	var order Order
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("order", id)
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}
	return &order, nil
}

// ListOwnerOrders lists the owner's orders, newest first
func (s *Service) ListOwnerOrders(ctx context.Context, ownerID uint, page, limit int) (*ListResponse, error) {
	query := s.db.WithContext(ctx).Model(&Order{}).Where("owner_id = ?", ownerID)
	return s.list(query, page, limit)
}

// ListOrders lists all orders for the admin console
func (s *Service) ListOrders(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	query := s.db.WithContext(ctx).Model(&Order{})
	if req.Status != "" {
		status := OrderStatus(req.Status)
		if !IsValidStatus(status) {
			return nil, apperror.Validation("unknown order status %q", req.Status)
		}
		query = query.Where("status = ?", status)
	}
	return s.list(query, req.Page, req.Limit)
}

func (s *Service) list(query *gorm.DB, page, limit int) (*ListResponse, error) {
	page, limit = pagination.Normalize(page, limit)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	err := query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("created_at DESC, id DESC").
		Offset(pagination.Offset(page, limit)).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}

	return &ListResponse{
		Orders:     orders,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// GetPayment returns the payment linked to an order
func (s *Service) GetPayment(ctx context.Context, order *Order) (*Payment, error) {
	var payment Payment
	err := s.db.WithContext(ctx).Where("id = ? AND order_id = ?", order.PaymentID, order.ID).First(&payment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.Inconsistent("payment", "order %d has no linked payment", order.ID)
		}
		return nil, fmt.Errorf("failed to retrieve payment: %w", err)
	}
	return &payment, nil
}

func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.log.WithFields(logrus.Fields{
			"event_type": event.Type,
			"order_id":   event.OrderID,
		}).WithError(err).Warn("failed to publish order event")
	}
}

func (s *Service) currency() string {
	if s.config != nil && s.config.Checkout.Currency != "" {
		return s.config.Checkout.Currency
	}
	return "INR"
}
