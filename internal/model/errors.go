package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for the core taxonomy. Callers classify with errors.Is and
// wrap with fmt.Errorf("...: %w", Err...) to add detail.
var (
	ErrValidation  = errors.New("validation failed")
	ErrAuth        = errors.New("authentication failed")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrRateLimited = errors.New("rate limited")
	ErrStore       = errors.New("store failure")
	ErrTransport   = errors.New("transport failure")
)

// DeliveryError is returned by the notification dispatcher after every retry
// has been exhausted. It is non-fatal to the state transition that triggered
// the delivery.
type DeliveryError struct {
	Recipient string
	Kind      NotificationKind
	Attempts  int
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to deliver %s to %s after %d attempts: %v", e.Kind, e.Recipient, e.Attempts, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}
