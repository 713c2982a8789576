package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/user"
	"github.com/your-org/flooring-store/internal/pkg/pdf"
)

const sendTimeout = 30 * time.Second

// ErrQueueFull is returned by Publish when the mail queue has no room
var ErrQueueFull = errors.New("order notification queue is full")

// RecipientLookup resolves the customer an order belongs to
type RecipientLookup interface {
	GetProfile(ctx context.Context, userID uint) (*user.User, error)
}

// OrderNotifier mails customers about their orders. It implements
// order.EventPublisher; mail goes out on a background worker.
type OrderNotifier struct {
	sender  Sender
	users   RecipientLookup
	company config.CompanyConfig
	log     *logrus.Logger
	tmpl    *template.Template

	mu     sync.RWMutex
	closed bool
	queue  chan order.Event
	done   chan struct{}
}

// NewOrderNotifier starts the delivery worker
func NewOrderNotifier(sender Sender, users RecipientLookup, company config.CompanyConfig, queueSize int, log *logrus.Logger) *OrderNotifier {
	if queueSize < 1 {
		queueSize = 1
	}
	n := &OrderNotifier{
		sender:  sender,
		users:   users,
		company: company,
		log:     log,
		tmpl: template.Must(template.New("order").Funcs(template.FuncMap{
			"inr": pdf.FormatINR,
		}).Parse(orderTemplate)),
		queue: make(chan order.Event, queueSize),
		done:  make(chan struct{}),
	}
	go n.run()
	return n
}

// Publish queues event for mailing without blocking the caller
func (n *OrderNotifier) Publish(_ context.Context, event order.Event) error {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.closed {
		return errors.New("order notifier is closed")
	}
	select {
	case n.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued mail to go out
func (n *OrderNotifier) Close() error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return nil
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	<-n.done
	return nil
}

func (n *OrderNotifier) run() {
	defer close(n.done)
	for event := range n.queue {
		if err := n.deliver(event); err != nil {
			n.log.WithFields(logrus.Fields{
				"order_id":   event.OrderID,
				"event_type": event.Type,
			}).WithError(err).Error("failed to send order email")
		}
	}
}

func (n *OrderNotifier) deliver(event order.Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	recipient, err := n.users.GetProfile(ctx, event.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}
	msg, err := n.BuildMessage(event, recipient)
	if err != nil {
		return err
	}
	if err := n.sender.Send(ctx, msg); err != nil {
		return err
	}

	n.log.WithFields(logrus.Fields{
		"order_id":   event.OrderID,
		"event_type": event.Type,
	}).Debug("order email sent")
	return nil
}

// BuildMessage renders the email for an order event
func (n *OrderNotifier) BuildMessage(event order.Event, recipient *user.User) (*Email, error) {
	subject, headline, kind := describe(event)
	data := orderMailData{
		SiteName:    n.company.Name,
		SupportMail: n.company.Email,
		UserName:    recipient.GetDisplayName(),
		OrderNumber: event.OrderNumber,
		Status:      string(event.Status),
		Headline:    headline,
		NetBill:     event.NetBill,
		PaymentMode: string(event.PaymentMode),
		Year:        event.OccurredAt.Year(),
	}

	var buf bytes.Buffer
	if err := n.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render order email: %w", err)
	}
	return &Email{
		To:          []string{recipient.Email},
		Subject:     subject,
		HTMLContent: buf.String(),
		Type:        kind,
	}, nil
}

func describe(event order.Event) (subject, headline string, kind EmailType) {
	if event.Type == order.EventOrderCreated {
		return fmt.Sprintf("Order Confirmation - %s", event.OrderNumber),
			"Thank you! We have received your order.", EmailTypeOrderConfirmation
	}

	switch event.Status {
	case order.OrderStatusArriving:
		headline = "Your order is on its way."
	case order.OrderStatusDelivered:
		headline = "Your order has been delivered."
	case order.OrderStatusCancel:
		headline = "Your order has been cancelled."
	default:
		headline = fmt.Sprintf("Your order is now %s.", event.Status)
	}
	return fmt.Sprintf("Order Update - %s", event.OrderNumber), headline, EmailTypeOrderStatusUpdate
}

const orderTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.SiteName}}</h2>
  <p>Hi {{.UserName}},</p>
  <p>{{.Headline}}</p>
  <table cellpadding="4">
    <tr><td>Order number</td><td><strong>{{.OrderNumber}}</strong></td></tr>
    <tr><td>Status</td><td>{{.Status}}</td></tr>
    <tr><td>Amount</td><td>{{inr .NetBill}}</td></tr>
    <tr><td>Payment</td><td>{{.PaymentMode}}</td></tr>
  </table>
  {{if .SupportMail}}<p>Questions? Write to {{.SupportMail}}.</p>{{end}}
  <p style="font-size: 12px; color: #888;">&copy; {{.Year}} {{.SiteName}}</p>
</body>
</html>`
