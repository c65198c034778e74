package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error handling.
var (
	ErrOrderNotFound       = errors.New("order_not_found")
	ErrSessionUnavailable  = errors.New("session_unavailable")
	ErrNoOrdersOutstanding = errors.New("no_orders_outstanding")
)

// MissingFieldError reports a required field absent from an inbound
// message. It aborts processing of that single message only; the
// dispatch loop logs it and moves on.
type MissingFieldError struct {
	Tag  int
	Name string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %s (%d)", e.Name, e.Tag)
}

// ValidationError represents a request validation failure on the
// control surface. The handler layer maps it to HTTP 400.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
