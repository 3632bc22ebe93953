package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeebo/errs/v2"
)

// ValidationError describes a rejected configuration value.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for module.field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap makes every ValidationError match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// OperationError records which module operation failed and why.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// CancelError is returned by blocking operations whose context was canceled.
// It matches both ErrCanceled and the context's cause, so callers can tell a
// deadline from an explicit cancel.
type CancelError struct {
	Op    string
	Cause error
}

// NewCancelError builds a CancelError from the state of ctx.
func NewCancelError(op string, ctx context.Context) *CancelError {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return &CancelError{Op: op, Cause: cause}
}

func (e *CancelError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrCanceled, e.Cause)
}

func (e *CancelError) Unwrap() []error {
	return []error{ErrCanceled, e.Cause}
}

// InvariantError reports a broken internal invariant. The detail carries a
// stack trace captured where the violation was detected.
type InvariantError struct {
	Component string
	Detail    error
}

// NewInvariantError creates an InvariantError for component.
func NewInvariantError(component, format string, args ...interface{}) *InvariantError {
	return &InvariantError{
		Component: component,
		Detail:    errs.Errorf(format, args...),
	}
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Component, ErrInvariantViolation, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}
