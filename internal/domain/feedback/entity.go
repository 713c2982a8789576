// internal/domain/feedback/entity.go
package feedback

import (
	"time"
)

// Feedback is a message left by a signed-in customer
type Feedback struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:255;not null" json:"email"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the table name
func (Feedback) TableName() string {
	return "feedback"
}

// CreateRequest represents a feedback submission
type CreateRequest struct {
	Name    string `json:"name" binding:"required,max=100"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
	Rating  *int   `json:"rating,omitempty"`
}

// ListRequest represents admin list query parameters
type ListRequest struct {
	Page   int `form:"page,default=1"`
	Limit  int `form:"limit,default=20"`
	Rating int `form:"rating"`
}
