// internal/domain/catalog/category_service.go
package catalog

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// CategoryService manages categories and their subcategories
type CategoryService struct {
	db     *gorm.DB
	config *config.Config
}

// NewCategoryService creates a new category service
func NewCategoryService(db *gorm.DB, cfg *config.Config) *CategoryService {
	return &CategoryService{
		db:     db,
		config: cfg,
	}
}

// CategoryCreateRequest represents category creation data
type CategoryCreateRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	SortOrder   int    `json:"sort_order"`
	IsActive    *bool  `json:"is_active"`
}

// CategoryUpdateRequest represents category update data
type CategoryUpdateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	SortOrder   *int    `json:"sort_order"`
	IsActive    *bool   `json:"is_active"`
}

// SubCategoryCreateRequest represents subcategory creation data
type SubCategoryCreateRequest struct {
	CategoryID  uint   `json:"category_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Image       string `json:"image"`
	IsActive    *bool  `json:"is_active"`
}

// SubCategoryUpdateRequest represents subcategory update data
type SubCategoryUpdateRequest struct {
	CategoryID  *uint   `json:"category_id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	IsActive    *bool   `json:"is_active"`
}

func boolOr(b *bool, def bool) bool {
	if b == nil {
		return def
	}
	return *b
}

// GetCategories lists categories with their subcategories
func (s *CategoryService) GetCategories(ctx context.Context, includeInactive bool) ([]Category, error) {
	var categories []Category
	query := s.db.WithContext(ctx).Order("sort_order ASC, name ASC")
	if includeInactive {
		query = query.Preload("SubCategories", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") })
	} else {
		query = query.Where("is_active = ?", true).
			Preload("SubCategories", func(db *gorm.DB) *gorm.DB {
				return db.Where("is_active = ?", true).Order("name ASC")
			})
	}
	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// GetCategory retrieves a category by ID
func (s *CategoryService) GetCategory(ctx context.Context, id uint, includeInactive bool) (*Category, error) {
	var category Category
	query := s.db.WithContext(ctx).Preload("SubCategories").Where("id = ?", id)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("category", id)
		}
		return nil, fmt.Errorf("failed to retrieve category: %w", err)
	}
	return &category, nil
}

// CreateCategory creates a new category
func (s *CategoryService) CreateCategory(ctx context.Context, req *CategoryCreateRequest) (*Category, error) {
	slug := Slugify(req.Name)
	if slug == "" {
		return nil, apperror.Validation("category name must contain letters or digits")
	}

	var count int64
	s.db.WithContext(ctx).Model(&Category{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return nil, apperror.Validation("category with similar name already exists")
	}

	category := Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Image:       req.Image,
		SortOrder:   req.SortOrder,
		IsActive:    boolOr(req.IsActive, true),
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category
func (s *CategoryService) UpdateCategory(ctx context.Context, id uint, req *CategoryUpdateRequest) (*Category, error) {
	category, err := s.GetCategory(ctx, id, true)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		slug := Slugify(*req.Name)
		if slug == "" {
			return nil, apperror.Validation("category name must contain letters or digits")
		}
		updates["name"] = *req.Name
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return category, nil
	}

	if err := s.db.WithContext(ctx).Model(&Category{ID: id}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return s.GetCategory(ctx, id, true)
}

// DeleteCategory soft deletes a category that has no subcategories
func (s *CategoryService) DeleteCategory(ctx context.Context, id uint) error {
	var childCount int64
	s.db.WithContext(ctx).Model(&SubCategory{}).Where("category_id = ?", id).Count(&childCount)
	if childCount > 0 {
		return apperror.Validation("cannot delete category with subcategories")
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&Category{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete category: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("category", id)
	}
	return nil
}

// GetSubCategories lists subcategories, optionally for one category
func (s *CategoryService) GetSubCategories(ctx context.Context, categoryID uint, includeInactive bool) ([]SubCategory, error) {
	var subs []SubCategory
	query := s.db.WithContext(ctx).Order("name ASC")
	if categoryID > 0 {
		query = query.Where("category_id = ?", categoryID)
	}
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve subcategories: %w", err)
	}
	return subs, nil
}

// GetSubCategory retrieves a subcategory with its parent category
func (s *CategoryService) GetSubCategory(ctx context.Context, id uint) (*SubCategory, error) {
	var sub SubCategory
	if err := s.db.WithContext(ctx).Preload("Category").Where("id = ?", id).First(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("subcategory", id)
		}
		return nil, fmt.Errorf("failed to retrieve subcategory: %w", err)
	}
	return &sub, nil
}

// CreateSubCategory creates a subcategory under an existing category
func (s *CategoryService) CreateSubCategory(ctx context.Context, req *SubCategoryCreateRequest) (*SubCategory, error) {
	if _, err := s.GetCategory(ctx, req.CategoryID, true); err != nil {
		return nil, err
	}

	slug := Slugify(req.Name)
	if slug == "" {
		return nil, apperror.Validation("subcategory name must contain letters or digits")
	}
	var count int64
	s.db.WithContext(ctx).Model(&SubCategory{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		return nil, apperror.Validation("subcategory with similar name already exists")
	}

	sub := SubCategory{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		Image:       req.Image,
		IsActive:    boolOr(req.IsActive, true),
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}
	return &sub, nil
}

// UpdateSubCategory updates an existing subcategory
func (s *CategoryService) UpdateSubCategory(ctx context.Context, id uint, req *SubCategoryUpdateRequest) (*SubCategory, error) {
	sub, err := s.GetSubCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.CategoryID != nil {
		if _, err := s.GetCategory(ctx, *req.CategoryID, true); err != nil {
			return nil, err
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Name != nil {
		slug := Slugify(*req.Name)
		if slug == "" {
			return nil, apperror.Validation("subcategory name must contain letters or digits")
		}
		updates["name"] = *req.Name
		updates["slug"] = slug
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Image != nil {
		updates["image"] = *req.Image
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		return sub, nil
	}

	if err := s.db.WithContext(ctx).Model(&SubCategory{ID: id}).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update subcategory: %w", err)
	}
	return s.GetSubCategory(ctx, id)
}

// DeleteSubCategory soft deletes a subcategory that has no products
func (s *CategoryService) DeleteSubCategory(ctx context.Context, id uint) error {
	var productCount int64
	s.db.WithContext(ctx).Model(&Product{}).Where("sub_category_id = ?", id).Count(&productCount)
	if productCount > 0 {
		return apperror.Validation("cannot delete subcategory with existing products")
	}

	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&SubCategory{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete subcategory: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("subcategory", id)
	}
	return nil
}
