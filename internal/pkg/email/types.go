// internal/pkg/email/types.go
package email

import (
	"context"
)

// EmailType represents the type of email being sent
type EmailType string

const (
	EmailTypeOrderConfirmation EmailType = "order_confirmation"
	EmailTypeOrderStatusUpdate EmailType = "order_status_update"
)

// Email represents an email message
type Email struct {
	To          []string  `json:"to"`
	Subject     string    `json:"subject"`
	HTMLContent string    `json:"html_content"`
	Type        EmailType `json:"type"`
}

// Sender delivers one message
type Sender interface {
	Send(ctx context.Context, msg *Email) error
}

// orderMailData feeds the order templates
type orderMailData struct {
	SiteName    string
	SupportMail string
	UserName    string
	OrderNumber string
	Status      string
	Headline    string
	NetBill     int64
	PaymentMode string
	Year        int
}
