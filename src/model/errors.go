package model

import (
	"errors"
	"fmt"
)

// ErrorKind tags every failure the execution flow can surface to the
// webhook caller. Notifier failures are deliberately absent: they are
// logged and swallowed, never propagated.
type ErrorKind string

const (
	ErrUnauthorized         ErrorKind = "unauthorized"
	ErrInvalidSignal        ErrorKind = "invalid_signal"
	ErrDuplicateSignal      ErrorKind = "duplicate_signal"
	ErrVenueUnavailable     ErrorKind = "venue_unavailable"
	ErrInstrumentResolution ErrorKind = "instrument_resolution_failed"
	ErrOrderSubmission      ErrorKind = "order_submission_failed"
	ErrLedgerWrite          ErrorKind = "ledger_write_failed"
)

// ExecutionError is the tagged error returned across the controller and
// gateway boundaries. Raw venue or storage errors never cross them.
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// NewExecutionError wraps err (may be nil) with a kind and an operator
// readable message.
func NewExecutionError(kind ErrorKind, message string, err error) *ExecutionError {
	return &ExecutionError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the ErrorKind from err, or "" when err carries none.
func KindOf(err error) ErrorKind {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Kind
	}
	return ""
}
