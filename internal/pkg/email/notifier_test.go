package email

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/flooring-store/internal/config"
	"github.com/your-org/flooring-store/internal/domain/order"
	"github.com/your-org/flooring-store/internal/domain/user"
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []*Email
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg *Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type fakeUsers map[uint]*user.User

func (f fakeUsers) GetProfile(_ context.Context, id uint) (*user.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

var company = config.CompanyConfig{Name: "Flooring Store", Email: "support@flooring.local"}

func createdEvent(owner uint) order.Event {
	return order.Event{
		Type:        order.EventOrderCreated,
		OrderID:     1,
		OrderNumber: "FLR-20261017-00001",
		OwnerID:     owner,
		Status:      order.OrderStatusPending,
		NetBill:     57950,
		PaymentMode: order.PaymentModeCOD,
		OccurredAt:  time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC),
	}
}

func TestOrderNotifier_DeliversQueuedMail(t *testing.T) {
	sender := &recordingSender{}
	log, _ := test.NewNullLogger()
	users := fakeUsers{7: {ID: 7, Email: "asha@example.com", FullName: "Asha Rao"}}

	n := NewOrderNotifier(sender, users, company, 10, log)
	require.NoError(t, n.Publish(context.Background(), createdEvent(7)))

	shipped := createdEvent(7)
	shipped.Type = order.EventOrderStatusChanged
	shipped.Status = order.OrderStatusArriving
	shipped.PreviousStatus = order.OrderStatusPending
	require.NoError(t, n.Publish(context.Background(), shipped))

	require.NoError(t, n.Close())
	require.Len(t, sender.sent, 2)

	confirm := sender.sent[0]
	assert.Equal(t, []string{"asha@example.com"}, confirm.To)
	assert.Equal(t, "Order Confirmation - FLR-20261017-00001", confirm.Subject)
	assert.Equal(t, EmailTypeOrderConfirmation, confirm.Type)
	assert.Contains(t, confirm.HTMLContent, "Hi Asha Rao")
	assert.Contains(t, confirm.HTMLContent, "₹57,950")

	update := sender.sent[1]
	assert.Equal(t, EmailTypeOrderStatusUpdate, update.Type)
	assert.Contains(t, update.HTMLContent, "on its way")
}

func TestOrderNotifier_FailuresAreLogged(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay down")}
	log, hook := test.NewNullLogger()

	n := NewOrderNotifier(sender, fakeUsers{7: {ID: 7, Email: "asha@example.com"}}, company, 10, log)
	require.NoError(t, n.Publish(context.Background(), createdEvent(7)))
	require.NoError(t, n.Publish(context.Background(), createdEvent(99)))
	require.NoError(t, n.Close())

	var errs []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			errs = append(errs, e.Data[logrus.ErrorKey].(error).Error())
		}
	}
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "relay down")
	assert.Contains(t, errs[1], "failed to resolve recipient")
}

func TestOrderNotifier_PublishAfterClose(t *testing.T) {
	log, _ := test.NewNullLogger()
	n := NewOrderNotifier(&recordingSender{}, fakeUsers{}, company, 1, log)
	require.NoError(t, n.Close())
	require.NoError(t, n.Close())

	assert.Error(t, n.Publish(context.Background(), createdEvent(7)))
}

func TestBuildMessage_StatusHeadlines(t *testing.T) {
	log, _ := test.NewNullLogger()
	n := NewOrderNotifier(&recordingSender{}, fakeUsers{}, company, 1, log)
	defer n.Close()
	recipient := &user.User{Email: "ravi@example.com"}

	for status, want := range map[order.OrderStatus]string{
		order.OrderStatusDelivered: "has been delivered",
		order.OrderStatusCancel:    "has been cancelled",
	} {
		ev := createdEvent(3)
		ev.Type = order.EventOrderStatusChanged
		ev.Status = status

		msg, err := n.BuildMessage(ev, recipient)
		require.NoError(t, err)
		assert.Contains(t, msg.HTMLContent, want)
		// no full name, so the greeting falls back to the email
		assert.Contains(t, msg.HTMLContent, "Hi ravi@example.com")
		assert.True(t, strings.HasPrefix(msg.Subject, "Order Update - "))
	}
}

func TestBuildMIME(t *testing.T) {
	raw := string(buildMIME(config.EmailConfig{
		FromEmail: "orders@flooring.local",
		FromName:  "Flooring Store",
		ReplyTo:   "help@flooring.local",
	}, &Email{
		To:          []string{"a@example.com", "b@example.com"},
		Subject:     "Hello",
		HTMLContent: "<p>hi</p>",
	}))

	assert.True(t, strings.HasPrefix(raw, "From: Flooring Store <orders@flooring.local>\r\n"))
	assert.Contains(t, raw, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, raw, "Reply-To: help@flooring.local\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPSender_RequiresHost(t *testing.T) {
	err := NewSMTPSender(config.EmailConfig{}).Send(context.Background(), &Email{To: []string{"a@example.com"}})
	assert.Error(t, err)
}
