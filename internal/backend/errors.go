package backend

import (
	"context"
	"errors"
	"fmt"
)

// ServerError is returned for any non-2xx response.
type ServerError struct {
	StatusCode int
	// Detail is the message the backend put in the "detail" field, if any.
	Detail    string
	RequestID string
}

func (e *ServerError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// DecodeError is returned for a 2xx response whose body does not match the
// expected result.
type DecodeError struct {
	Operation  string
	StatusCode int
	RequestID  string
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("unexpected %s response from backend: %v", e.Operation, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// TransportError is returned when no response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	if e.Timeout() {
		return "could not reach backend: request timed out"
	}
	return fmt.Sprintf("could not reach backend: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}
