// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
	"github.com/your-org/flooring-store/internal/pkg/pagination"
)

// Service handles product business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new product service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page          int    `form:"page,default=1"`
	Limit         int    `form:"limit,default=20"`
	CategoryID    uint   `form:"category_id"`
	SubCategoryID uint   `form:"subcategory_id"`
	Search        string `form:"search"`
	SortBy        string `form:"sort_by,default=created_at"`
	SortOrder     string `form:"sort_order,default=desc"`
	MinPrice      int64  `form:"min_price"`
	MaxPrice      int64  `form:"max_price"`

	// IncludeInactive is only honoured for admin listings
	IncludeInactive bool `form:"-"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	SubCategoryID uint    `json:"subcategory_id" binding:"required"`
	SKU           string  `json:"sku" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	Description   string  `json:"description"`
	Material      string  `json:"material"`
	Finish        string  `json:"finish"`
	Thickness     string  `json:"thickness"`
	Unit          string  `json:"unit"`
	Coverage      float64 `json:"coverage_sqft"`
	Price         int64   `json:"price" binding:"required,min=1"`
	Stock         int     `json:"stock" binding:"min=0"`
	Image         string  `json:"image"`
	IsActive      *bool   `json:"is_active"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	SubCategoryID *uint    `json:"subcategory_id"`
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Material      *string  `json:"material"`
	Finish        *string  `json:"finish"`
	Thickness     *string  `json:"thickness"`
	Unit          *string  `json:"unit"`
	Coverage      *float64 `json:"coverage_sqft"`
	Price         *int64   `json:"price"`
	Stock         *int     `json:"stock"`
	Image         *string  `json:"image"`
	IsActive      *bool    `json:"is_active"`
}

// ProductResponse represents product response with pagination
type ProductResponse struct {
	Products   []Product             `json:"products"`
	Pagination pagination.Pagination `json:"pagination"`
}

// GetProducts retrieves products with filtering and pagination
func (s *Service) GetProducts(ctx context.Context, req *ProductListRequest) (*ProductResponse, error) {
	req.Page, req.Limit = pagination.Normalize(req.Page, req.Limit)

	var products []Product
	var total int64

	query := s.db.WithContext(ctx).Model(&Product{})

	if req.SubCategoryID > 0 {
		query = query.Where("sub_category_id = ?", req.SubCategoryID)
	}
	if req.CategoryID > 0 {
		query = query.Where("sub_category_id IN (?)",
			s.db.Model(&SubCategory{}).Select("id").Where("category_id = ?", req.CategoryID))
	}
	if req.Search != "" {
		search := "%" + strings.ToLower(req.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ? OR LOWER(material) LIKE ?", search, search, search)
	}
	if req.MinPrice > 0 {
		query = query.Where("price >= ?", req.MinPrice)
	}
	if req.MaxPrice > 0 {
		query = query.Where("price <= ?", req.MaxPrice)
	}
	if !req.IncludeInactive {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	err := query.Preload("SubCategory").
		Order(s.buildOrderClause(req.SortBy, req.SortOrder)).
		Offset(pagination.Offset(req.Page, req.Limit)).Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	return &ProductResponse{
		Products:   products,
		Pagination: pagination.New(req.Page, req.Limit, total),
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(ctx context.Context, id uint, includeInactive bool) (*Product, error) {
	var product Product
	query := s.db.WithContext(ctx).Preload("SubCategory.Category").Where("id = ?", id)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product", id)
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", err)
	}
	return &product, nil
}

// LookupPrice returns the name and current price of an active product.
func (s *Service) LookupPrice(ctx context.Context, productID uint) (string, int64, error) {
	var product Product
	err := s.db.WithContext(ctx).
		Select("id", "name", "price").
		Where("id = ? AND is_active = ?", productID, true).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", 0, apperror.NotFound("product", productID)
		}
		return "", 0, fmt.Errorf("failed to look up product price: %w", err)
	}
	return product.Name, product.Price, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(ctx context.Context, req *ProductCreateRequest) (*Product, error) {
	var count int64
	s.db.WithContext(ctx).Model(&Product{}).Unscoped().Where("sku = ?", req.SKU).Count(&count)
	if count > 0 {
		return nil, apperror.Validation("product with SKU %s already exists", req.SKU)
	}

	var sub SubCategory
	if err := s.db.WithContext(ctx).Where("id = ?", req.SubCategoryID).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subcategory", req.SubCategoryID)
		}
		return nil, fmt.Errorf("failed to find subcategory: %w", err)
	}

	unit := req.Unit
	if unit == "" {
		unit = "box"
	}

	product := Product{
		SubCategoryID: req.SubCategoryID,
		SKU:           req.SKU,
		Name:          req.Name,
		Slug:          s.generateSlug(req.Name, req.SKU),
		Description:   req.Description,
		Material:      req.Material,
		Finish:        req.Finish,
		Thickness:     req.Thickness,
		Unit:          unit,
		Coverage:      req.Coverage,
		Price:         req.Price,
		Stock:         req.Stock,
		Image:         req.Image,
		IsActive:      boolOr(req.IsActive, true),
	}

	if err := s.db.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return s.GetProduct(ctx, product.ID, true)
}

// UpdateProduct updates an existing product. Price changes never touch
// prices already snapshotted into carts or orders.
func (s *Service) UpdateProduct(ctx context.Context, id uint, req *ProductUpdateRequest) (*Product, error) {
	product, err := s.GetProduct(ctx, id, true)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if req.SubCategoryID != nil {
		var count int64
		s.db.WithContext(ctx).Model(&SubCategory{}).Where("id = ?", *req.SubCategoryID).Count(&count)
		if count == 0 {
			return nil, apperror.NotFound("subcategory", *req.SubCategoryID)
		}
		updates["sub_category_id"] = *req.SubCategoryID
	}
	if req.Name != nil {
		updates["name"] = *req.Name
		updates["slug"] = s.generateSlug(*req.Name, product.SKU)
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Material != nil {
		updates["material"] = *req.Material
	}
	if req.Finish != nil {
		updates["finish"] = *req.Finish
	}
	if req.Thickness != nil {
		updates["thickness"] = *req.Thickness
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	if req.Coverage != nil {
		updates["coverage"] = *req.Coverage
	}
	if req.Price != nil {
		if *req.Price < 1 {
			return nil, apperror.Validation("price must be positive")
		}
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, apperror.Validation("stock cannot be negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(&Product{ID: id}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	return s.GetProduct(ctx, id, true)
}

// DeleteProduct soft deletes a product
func (s *Service) DeleteProduct(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("product", id)
	}
	return nil
}

// buildOrderClause builds ORDER BY clause for sorting
func (s *Service) buildOrderClause(sortBy, sortOrder string) string {
	validSortFields := map[string]bool{
		"name":       true,
		"price":      true,
		"created_at": true,
		"updated_at": true,
		"stock":      true,
	}

	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return fmt.Sprintf("%s %s, id %s", sortBy, sortOrder, sortOrder)
}

// generateSlug makes a URL slug that stays unique through the SKU
func (s *Service) generateSlug(name, sku string) string {
	return Slugify(name + " " + sku)
}
