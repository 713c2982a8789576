// internal/domain/catalog/entity.go
package catalog

import (
	"time"

	"gorm.io/gorm"
)

// Category is a top level grouping such as "Wooden Flooring" or "Tiles"
type Category struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	SortOrder   int            `gorm:"default:0" json:"sort_order"`
	IsActive    bool           `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	SubCategories []SubCategory `gorm:"foreignKey:CategoryID" json:"subcategories,omitempty"`
}

// SubCategory narrows a category, e.g. "Engineered Oak" under "Wooden Flooring"
type SubCategory struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"size:500" json:"description"`
	Image       string         `gorm:"size:500" json:"image"`
	IsActive    bool           `gorm:"not null;index" json:"is_active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	Category *Category `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"category,omitempty"`
}

// Product is a sellable flooring item. Price is whole rupees per Unit.
type Product struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	SubCategoryID uint           `gorm:"not null;index" json:"subcategory_id"`
	SKU           string         `gorm:"uniqueIndex;not null;size:100" json:"sku"`
	Name          string         `gorm:"not null;size:255" json:"name"`
	Slug          string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description   string         `gorm:"type:text" json:"description"`
	Material      string         `gorm:"size:100" json:"material"`
	Finish        string         `gorm:"size:100" json:"finish"`
	Thickness     string         `gorm:"size:50" json:"thickness"`
	Unit          string         `gorm:"size:20;default:'box'" json:"unit"`
	Coverage      float64        `json:"coverage_sqft"` // square feet covered by one unit
	Price         int64          `gorm:"not null" json:"price"`
	Stock         int            `gorm:"default:0" json:"stock"`
	Image         string         `gorm:"size:500" json:"image"`
	IsActive      bool           `gorm:"not null;index" json:"is_active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	SubCategory *SubCategory `gorm:"foreignKey:SubCategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"subcategory,omitempty"`
}

// TableName overrides
func (Category) TableName() string    { return "categories" }
func (SubCategory) TableName() string { return "subcategories" }
func (Product) TableName() string     { return "products" }

// IsInStock reports whether any units are on hand
func (p *Product) IsInStock() bool {
	return p.Stock > 0
}
