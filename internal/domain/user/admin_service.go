// internal/domain/user/admin_service.go
package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/pkg/apperror"
	"github.com/your-org/flooring-store/internal/pkg/pagination"
)

// AdminService handles admin user management operations
type AdminService struct {
	db  *gorm.DB
	log *logrus.Logger
}

// NewAdminService creates a new admin user service
func NewAdminService(db *gorm.DB, log *logrus.Logger) *AdminService {
	return &AdminService{db: db, log: log}
}

// UserListRequest represents user list query parameters
type UserListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Search string `form:"search"`
	Status string `form:"status"` // active, inactive, all
	Role   string `form:"role"`   // admin, customer, all
}

// UserListResponse represents user list with pagination
type UserListResponse struct {
	Users      []UserWithStats       `json:"users"`
	Pagination pagination.Pagination `json:"pagination"`
}

// UserWithStats is a user plus their order history totals. Cancelled orders
// do not count towards TotalSpent.
type UserWithStats struct {
	User
	OrderCount  int64      `json:"order_count"`
	TotalSpent  int64      `json:"total_spent"`
	LastOrderAt *time.Time `json:"last_order_at"`
}

// UserStatusUpdateRequest activates or deactivates an account
type UserStatusUpdateRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// UserAdminToggleRequest grants or revokes the admin role
type UserAdminToggleRequest struct {
	IsAdmin *bool `json:"is_admin" binding:"required"`
}

// GetUsers lists users with filters and pagination
func (s *AdminService) GetUsers(ctx context.Context, req *UserListRequest) (*UserListResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)
	query := s.db.WithContext(ctx).Model(&User{})

	if search := strings.TrimSpace(req.Search); search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(email) LIKE ? OR LOWER(full_name) LIKE ? OR phone LIKE ?", term, term, "%"+search+"%")
	}

	switch req.Status {
	case "", "all":
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	default:
		return nil, apperror.Validation("unknown status filter %q", req.Status)
	}

	switch req.Role {
	case "", "all":
	case "admin":
		query = query.Where("is_admin = ?", true)
	case "customer":
		query = query.Where("is_admin = ?", false)
	default:
		return nil, apperror.Validation("unknown role filter %q", req.Role)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []User
	if err := query.Order("created_at DESC, id DESC").
		Offset(pagination.Offset(page, limit)).Limit(limit).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve users: %w", err)
	}

	result := make([]UserWithStats, 0, len(users))
	for _, u := range users {
		stats, err := s.getUserStats(ctx, u)
		if err != nil {
			s.log.WithField("user_id", u.ID).WithError(err).Warn("failed to load user stats")
			stats = &UserWithStats{User: u}
		}
		result = append(result, *stats)
	}

	return &UserListResponse{
		Users:      result,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// GetUser retrieves a single user with stats
func (s *AdminService) GetUser(ctx context.Context, userID uint) (*UserWithStats, error) {
	u, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.getUserStats(ctx, *u)
	if err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

// UpdateUserStatus activates or deactivates a user. Admins cannot deactivate themselves.
func (s *AdminService) UpdateUserStatus(ctx context.Context, userID uint, req *UserStatusUpdateRequest, adminID uint) (*User, error) {
	if req.IsActive == nil {
		return nil, apperror.Validation("is_active is required")
	}
	if userID == adminID && !*req.IsActive {
		return nil, apperror.Validation("cannot deactivate your own account")
	}
	return s.update(ctx, userID, "is_active", *req.IsActive, adminID)
}

// ToggleUserAdmin grants or revokes admin. At least one admin always remains.
func (s *AdminService) ToggleUserAdmin(ctx context.Context, userID uint, req *UserAdminToggleRequest, adminID uint) (*User, error) {
	if req.IsAdmin == nil {
		return nil, apperror.Validation("is_admin is required")
	}
	if !*req.IsAdmin {
		if userID == adminID {
			return nil, apperror.Validation("cannot remove your own admin privileges")
		}
		var others int64
		if err := s.db.WithContext(ctx).Model(&User{}).
			Where("is_admin = ? AND id <> ?", true, userID).
			Count(&others).Error; err != nil {
			return nil, fmt.Errorf("failed to count admins: %w", err)
		}
		if others == 0 {
			return nil, apperror.Validation("at least one admin must remain")
		}
	}
	return s.update(ctx, userID, "is_admin", *req.IsAdmin, adminID)
}

func (s *AdminService) update(ctx context.Context, userID uint, column string, value bool, adminID uint) (*User, error) {
	u, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Update(column, value).Error; err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": adminID,
		column:     value,
	}).Info("user updated by admin")
	return s.find(ctx, userID)
}

func (s *AdminService) find(ctx context.Context, userID uint) (*User, error) {
	var u User
	if err := s.db.WithContext(ctx).First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user", userID)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &u, nil
}

// getUserStats reads the orders table directly; the user package does not
// depend on the order domain.
func (s *AdminService) getUserStats(ctx context.Context, u User) (*UserWithStats, error) {
	stats := &UserWithStats{User: u}
	orders := func() *gorm.DB {
		return s.db.WithContext(ctx).Table("orders").Where("owner_id = ? AND deleted_at IS NULL", u.ID)
	}

	if err := orders().Count(&stats.OrderCount).Error; err != nil {
		return nil, err
	}
	if stats.OrderCount == 0 {
		return stats, nil
	}

	var spent struct{ Total int64 }
	if err := orders().Select("COALESCE(SUM(net_bill), 0) AS total").
		Where("status <> ?", "cancel").
		Scan(&spent).Error; err != nil {
		return nil, err
	}
	stats.TotalSpent = spent.Total

	var last struct{ CreatedAt time.Time }
	if err := orders().Select("created_at").
		Order("created_at DESC").Limit(1).
		Scan(&last).Error; err != nil {
		return nil, err
	}
	stats.LastOrderAt = &last.CreatedAt
	return stats, nil
}
