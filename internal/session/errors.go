package session

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when an operation is invoked while another one is in flight.
	ErrBusy = errors.New("another request is in flight")
	// ErrOperationDisabled is returned for operations outside the session's operation set.
	ErrOperationDisabled = errors.New("operation is disabled")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session is closed")
)

// ValidationError reports a missing local input. It never reaches the network.
type ValidationError struct {
	Operation Operation
	Message   string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(op Operation, msg string) error {
	return &ValidationError{Operation: op, Message: msg}
}

func disabledError(op Operation) error {
	return fmt.Errorf("%w: %s", ErrOperationDisabled, op)
}
