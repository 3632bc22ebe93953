// Package errors defines the error values shared by the poolflow packages.
package errors

import "errors"

var (
	// ErrClosed indicates that an operation was attempted on a closed (disposed) resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCapacityExceeded indicates that a capacity limit was exceeded
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrCanceled indicates that the caller asked a blocking operation to stop
	ErrCanceled = errors.New("operation canceled")

	// ErrInvariantViolation indicates an internal consistency failure, which is a bug
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrForeignElement indicates an element was handed to a container that does not own it
	ErrForeignElement = errors.New("element belongs to another container")

	// ErrRemoved indicates an element was already removed from its container
	ErrRemoved = errors.New("element already removed")
)

// IsClosed reports whether err came from a closed pool, container or queue.
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}

// IsCanceled returns true if the error came from a canceled wait.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return errors.As(err, target) }

// New returns an error that formats as the given text.
func New(text string) error { return errors.New(text) }
