package order

import (
	"context"
	"errors"
	"time"
)

// Event types published after an order commits
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is the payload sent to downstream consumers
type Event struct {
	Type           string      `json:"event_type"`
	OrderID        uint        `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	OwnerID        uint        `json:"owner_id"`
	Status         OrderStatus `json:"status"`
	PreviousStatus OrderStatus `json:"previous_status,omitempty"`
	NetBill        int64       `json:"net_bill"`
	PaymentMode    PaymentMode `json:"payment_mode"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// EventPublisher delivers order events. Publishing happens after commit and
// its failure never rolls back the order.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards events; used when no broker is configured
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func newEvent(eventType string, o *Order, previous OrderStatus) Event {
	return Event{
		Type:           eventType,
		OrderID:        o.ID,
		OrderNumber:    o.OrderNumber,
		OwnerID:        o.OwnerID,
		Status:         o.Status,
		PreviousStatus: previous,
		NetBill:        o.NetBill,
		PaymentMode:    o.PaymentMode,
		OccurredAt:     time.Now().UTC(),
	}
}

// Publishers fans an event out to every publisher and joins their errors
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range ps {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
