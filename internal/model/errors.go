package model

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by a store that has been torn down.
var ErrClosed = errors.New("todo store is closed")

// ValidationError is a rejected payload, either caught locally before
// submission or reported by the backend with a 4xx.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError means the backend denies the existence of the item.
type NotFoundError struct {
	ID      int64
	Message string
}

func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("TODO item with id %d not found", e.ID)
}

// ConnectionError means no usable response reached the client: the backend
// is unreachable, or its cross-origin policy rejected the configured origin.
type ConnectionError struct {
	URL     string
	Origin  string
	Message string
	Err     error
}

func (e *ConnectionError) Error() string { return e.Message }
func (e *ConnectionError) Unwrap() error { return e.Err }

// CrossOrigin reports whether the rejection came from the origin policy.
func (e *ConnectionError) CrossOrigin() bool { return e.Origin != "" }

// TimeoutError means no response arrived before the deadline.
type TimeoutError struct {
	URL     string
	Message string
	Err     error
}

func (e *TimeoutError) Error() string { return e.Message }
func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError covers every other non-success response.
type TransportError struct {
	Status  int
	Message string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.Status, e.Message)
}

// BusyError rejects a mutation on an item that already has one in flight.
type BusyError struct {
	ID int64
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("TODO item %d has a pending change, try again", e.ID)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsConnection reports whether err is or wraps a ConnectionError.
func IsConnection(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
