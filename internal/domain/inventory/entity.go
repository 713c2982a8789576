// internal/domain/inventory/entity.go
package inventory

import (
	"time"
)

// MovementType represents the direction of a stock change
type MovementType string

const (
	MovementTypeInbound    MovementType = "inbound"    // delivery from supplier, customer return
	MovementTypeOutbound   MovementType = "outbound"   // dispatch, damage
	MovementTypeAdjustment MovementType = "adjustment" // stock count correction, sets an absolute level
)

// MovementReason represents why stock changed
type MovementReason string

const (
	ReasonPurchase   MovementReason = "purchase"
	ReasonReturn     MovementReason = "return"
	ReasonSale       MovementReason = "sale"
	ReasonDamage     MovementReason = "damage"
	ReasonStockCount MovementReason = "stock_count"
)

var validReasons = map[MovementType][]MovementReason{
	MovementTypeInbound:    {ReasonPurchase, ReasonReturn},
	MovementTypeOutbound:   {ReasonSale, ReasonDamage},
	MovementTypeAdjustment: {ReasonStockCount},
}

// StockMovement is one audited change to a product's stock level
type StockMovement struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	ProductID        uint           `gorm:"not null;index" json:"product_id"`
	MovementType     MovementType   `gorm:"not null;size:20" json:"movement_type"`
	Reason           MovementReason `gorm:"not null;size:30" json:"reason"`
	Quantity         int            `gorm:"not null" json:"quantity"`
	PreviousQuantity int            `gorm:"not null" json:"previous_quantity"`
	NewQuantity      int            `gorm:"not null" json:"new_quantity"`
	Reference        string         `gorm:"size:100" json:"reference,omitempty"`
	Notes            string         `gorm:"type:text" json:"notes,omitempty"`
	CreatedBy        uint           `gorm:"index" json:"created_by"`
	CreatedAt        time.Time      `json:"created_at"`
}

// TableName overrides the table name for StockMovement
func (StockMovement) TableName() string {
	return "stock_movements"
}

// Delta is the signed change this movement applied
func (m *StockMovement) Delta() int {
	return m.NewQuantity - m.PreviousQuantity
}
