// Package apperror holds the error kinds shared by the domain services and
// their mapping onto HTTP status codes.
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrConcurrentUpdate is returned when an optimistic write keeps losing the race.
	ErrConcurrentUpdate = errors.New("resource was modified concurrently, please retry")
	// ErrCheckoutInProgress is returned while another request holds the same idempotency key.
	ErrCheckoutInProgress = errors.New("checkout with this idempotency key is already in progress")
	// ErrForbidden is returned when the caller lacks the role for an operation.
	ErrForbidden = errors.New("forbidden")
	// ErrUnauthorized is returned for bad credentials or tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports malformed input. Fields maps field name to problem.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	sort.Strings(parts)
	return fmt.Sprintf("%s (%s)", e.Message, strings.Join(parts, "; "))
}

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(resource string, id interface{}) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InvalidTransitionError is returned when a state machine guard rejects a move.
type InvalidTransitionError struct {
	From   string
	To     string
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

// InconsistentStateError signals a broken internal invariant, such as a stored
// total that no longer matches its line items.
type InconsistentStateError struct {
	Entity string
	Detail string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent %s state: %s", e.Entity, e.Detail)
}

// Inconsistent builds an InconsistentStateError.
func Inconsistent(entity, format string, args ...interface{}) *InconsistentStateError {
	return &InconsistentStateError{Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// HTTPStatus maps an error onto the status code handlers respond with.
func HTTPStatus(err error) int {
	var (
		ve  *ValidationError
		nf  *NotFoundError
		ite *InvalidTransitionError
	)
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &nf):
		return http.StatusNotFound
	case errors.As(err, &ite):
		return http.StatusConflict
	case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrCheckoutInProgress):
		return http.StatusConflict
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
