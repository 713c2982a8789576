// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/domain/pricing"
)

// OrderStatus represents the order status
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusArriving  OrderStatus = "arriving"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancel    OrderStatus = "cancel"
)

// PaymentMode is how the customer pays
type PaymentMode string

const (
	PaymentModeCOD        PaymentMode = "COD"
	PaymentModeNetBanking PaymentMode = "Net Banking"
	PaymentModeUPI        PaymentMode = "UPI"
)

// PaymentStatus represents payment status
type PaymentStatus string

const (
	PaymentStatusConfirmed  PaymentStatus = "confirmed"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// Order is the frozen result of a checkout. Only Status and its timestamps
// change after creation.
type Order struct {
	ID             uint               `gorm:"primaryKey" json:"id"`
	OrderNumber    string             `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	OwnerID        uint               `gorm:"not null;index" json:"owner_id"`
	Status         OrderStatus        `gorm:"not null;size:20;index" json:"status"`
	Policy         pricing.PolicyName `gorm:"not null;size:20" json:"pricing_policy"`
	PaymentMode    PaymentMode        `gorm:"not null;size:20" json:"payment_mode"`
	PaymentID      uint               `gorm:"not null;index" json:"payment_id"`
	IdempotencyKey string             `gorm:"size:100;index" json:"-"`

	// Bill, in whole rupees
	Subtotal        int64  `gorm:"not null" json:"subtotal"`
	DiscountPercent int64  `gorm:"not null;default:0" json:"discount_percent"`
	DiscountAmount  int64  `gorm:"not null;default:0" json:"discount_amount"`
	ShippingCharge  int64  `gorm:"not null;default:0" json:"shipping_charge"`
	NetBill         int64  `gorm:"not null" json:"net_bill"`
	Currency        string `gorm:"size:3;default:'INR'" json:"currency"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	CancelReason string         `gorm:"type:text" json:"cancel_reason,omitempty"`
	ArrivingAt   *time.Time     `json:"arriving_at,omitempty"`
	DeliveredAt  *time.Time     `json:"delivered_at,omitempty"`
	CancelledAt  *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Items         []OrderItem          `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []OrderStatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem is a line frozen at checkout time
type OrderItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	ProductID    uint      `gorm:"not null;index" json:"product_id"`
	ProductName  string    `gorm:"not null;size:255" json:"product_name"`
	PricePerUnit int64     `gorm:"not null" json:"price_per_unit"`
	Units        int       `gorm:"not null" json:"units"`
	TotalAmount  int64     `gorm:"not null" json:"total_amount"`
	CreatedAt    time.Time `json:"created_at"`
}

// Payment records how an order is paid. OrderID is zero only inside the
// transaction that creates the order.
type Payment struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	OrderID     uint          `gorm:"not null;index" json:"order_id"`
	OwnerID     uint          `gorm:"not null;index" json:"owner_id"`
	PaymentMode PaymentMode   `gorm:"not null;size:20" json:"payment_mode"`
	Amount      int64         `gorm:"not null" json:"amount"`
	Currency    string        `gorm:"size:3;default:'INR'" json:"currency"`
	Status      PaymentStatus `gorm:"not null;size:20" json:"status"`
	PaymentDate time.Time     `gorm:"not null" json:"payment_date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// OrderStatusHistory tracks order status changes
type OrderStatusHistory struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	OrderID    uint        `gorm:"not null;index" json:"order_id"`
	FromStatus OrderStatus `gorm:"size:20" json:"from_status,omitempty"`
	ToStatus   OrderStatus `gorm:"not null;size:20" json:"to_status"`
	Comment    string      `gorm:"type:text" json:"comment"`
	ChangedBy  uint        `gorm:"index" json:"changed_by"`
	CreatedAt  time.Time   `json:"created_at"`
}

// TableName overrides
func (Order) TableName() string              { return "orders" }
func (OrderItem) TableName() string          { return "order_items" }
func (Payment) TableName() string            { return "payments" }
func (OrderStatusHistory) TableName() string { return "order_status_history" }

// GenerateOrderNumber formats the public order number, e.g. FLR-20261017-00042
func GenerateOrderNumber(id uint, at time.Time) string {
	return fmt.Sprintf("FLR-%s-%05d", at.Format("20060102"), id)
}

// CanBeCancelled checks if the owner may still cancel
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending
}

// IsTerminal reports whether no further transitions exist
func (o *Order) IsTerminal() bool {
	return len(transitions[o.Status]) == 0
}

// ItemsTotal sums the frozen line totals
func (o *Order) ItemsTotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.TotalAmount
	}
	return sum
}

// ParsePaymentMode accepts the mode labels shown at checkout
func ParsePaymentMode(s string) (PaymentMode, bool) {
	switch s {
	case "COD", "cod", "cash", "Cash on Delivery":
		return PaymentModeCOD, true
	case "Net Banking", "net_banking", "netbanking", "NetBanking":
		return PaymentModeNetBanking, true
	case "UPI", "upi":
		return PaymentModeUPI, true
	}
	return "", false
}

// InitialPaymentStatus is processing for cash on delivery and confirmed for prepaid modes
func InitialPaymentStatus(mode PaymentMode) PaymentStatus {
	if mode == PaymentModeCOD {
		return PaymentStatusProcessing
	}
	return PaymentStatusConfirmed
}
