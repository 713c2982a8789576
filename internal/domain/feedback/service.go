// internal/domain/feedback/service.go
package feedback

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/your-org/flooring-store/internal/pkg/apperror"
	"github.com/your-org/flooring-store/internal/pkg/pagination"
)

const (
	minMessageLength = 10
	maxMessageLength = 2000
)

// Service handles feedback business logic
type Service struct {
	db *gorm.DB
}

// NewService creates a new feedback service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ListResponse represents feedback with pagination
type ListResponse struct {
	Feedback   []Feedback            `json:"feedback"`
	Pagination pagination.Pagination `json:"pagination"`
}

// Create stores feedback from userID
func (s *Service) Create(ctx context.Context, userID uint, req *CreateRequest) (*Feedback, error) {
	message := strings.TrimSpace(req.Message)
	fields := map[string]string{}
	if n := utf8.RuneCountInString(message); n < minMessageLength {
		fields["message"] = fmt.Sprintf("must be at least %d characters", minMessageLength)
	} else if n > maxMessageLength {
		fields["message"] = fmt.Sprintf("must be at most %d characters", maxMessageLength)
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		fields["rating"] = "must be between 1 and 5"
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "is required"
	}
	if len(fields) > 0 {
		return nil, &apperror.ValidationError{Message: "invalid feedback", Fields: fields}
	}

	fb := Feedback{
		UserID:  userID,
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.ToLower(strings.TrimSpace(req.Email)),
		Message: message,
		Rating:  req.Rating,
	}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}
	return &fb, nil
}

// List returns feedback newest first
func (s *Service) List(ctx context.Context, req *ListRequest) (*ListResponse, error) {
	page, limit := pagination.Normalize(req.Page, req.Limit)

	query := s.db.WithContext(ctx).Model(&Feedback{})
	if req.Rating > 0 {
		query = query.Where("rating = ?", req.Rating)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count feedback: %w", err)
	}

	var items []Feedback
	err := query.Order("created_at DESC, id DESC").
		Offset(pagination.Offset(page, limit)).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve feedback: %w", err)
	}

	return &ListResponse{
		Feedback:   items,
		Pagination: pagination.New(page, limit, total),
	}, nil
}

// Delete removes a feedback entry
func (s *Service) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Feedback{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete feedback: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("feedback", id)
	}
	return nil
}
