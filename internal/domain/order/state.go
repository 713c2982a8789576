package order

import (
	"github.com/your-org/flooring-store/internal/pkg/apperror"
)

// transitions lists every legal move. delivered and cancel are terminal.
var transitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:  {OrderStatusArriving, OrderStatusCancel},
	OrderStatusArriving: {OrderStatusDelivered},
}

// IsValidStatus reports whether s is a known order status
func IsValidStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusArriving, OrderStatusDelivered, OrderStatusCancel:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

const msgCannotCancel = "order cannot be cancelled at this stage"

// checkCancel is the owner-side guard
func checkCancel(o *Order) error {
	if !o.CanBeCancelled() {
		return &apperror.InvalidTransitionError{
			From:   string(o.Status),
			To:     string(OrderStatusCancel),
			Reason: msgCannotCancel,
		}
	}
	return nil
}

// checkAdvance is the admin-side guard. Admins move orders forward only;
// cancelling is left to the customer.
func checkAdvance(o *Order, to OrderStatus) error {
	if !IsValidStatus(to) {
		return apperror.Validation("unknown order status %q", to)
	}
	if to == OrderStatusCancel {
		return &apperror.InvalidTransitionError{
			From:   string(o.Status),
			To:     string(to),
			Reason: "only the customer can cancel an order",
		}
	}
	if !CanTransition(o.Status, to) {
		return &apperror.InvalidTransitionError{From: string(o.Status), To: string(to)}
	}
	return nil
}
