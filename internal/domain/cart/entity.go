// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// Cart is the single cart a customer owns. Total always equals the sum of
// the line totals; Version guards read-modify-write cycles.
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	OwnerID   uint       `gorm:"not null;uniqueIndex" json:"owner_id"`
	Items     []LineItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
	Total     int64      `gorm:"not null;default:0" json:"total"`
	Version   int64      `gorm:"not null;default:0" json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// TableName overrides the table name
func (Cart) TableName() string {
	return "carts"
}

// LineItem is one product in a cart. UnitPrice is the catalog price at the
// moment the product was first added and is never refreshed.
type LineItem struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CartID      uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"-"`
	ProductID   uint      `gorm:"not null;uniqueIndex:idx_cart_items_cart_product" json:"product_id"`
	ProductName string    `gorm:"size:255;not null" json:"product_name"`
	UnitPrice   int64     `gorm:"not null" json:"unit_price"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	LineTotal   int64     `gorm:"not null" json:"line_total"`
	CreatedAt   time.Time `json:"added_at"`
}

// TableName overrides the table name
func (LineItem) TableName() string {
	return "cart_items"
}

// AddItemRequest represents add to cart request
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=10000"`
}

// UpdateItemRequest represents update cart item request. A quantity below
// one removes the line.
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"max=10000"`
}

// Summary is the cart view returned to clients
type Summary struct {
	Cart
	ItemCount     int `json:"item_count"`
	TotalQuantity int `json:"total_quantity"`
}

// Summarize builds the client view of c
func Summarize(c *Cart) *Summary {
	s := &Summary{Cart: *c, ItemCount: len(c.Items)}
	if s.Items == nil {
		s.Items = []LineItem{}
	}
	for _, it := range c.Items {
		s.TotalQuantity += it.Quantity
	}
	return s
}
