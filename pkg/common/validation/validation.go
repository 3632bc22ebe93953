// Package validation provides common validation utilities for the poolflow library.
package validation

import (
	"fmt"
	"time"

	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
)

// ValidatePositive validates that an integer value is positive (> 0).
func ValidatePositive(module, field string, value int) error {
	if value <= 0 {
		return pferrors.NewValidationError(module, field, value, "must be positive").
			WithHint("value must be greater than 0")
	}
	return nil
}

// ValidateNonNegative validates that an integer value is non-negative (>= 0).
func ValidateNonNegative(module, field string, value int) error {
	if value < 0 {
		return pferrors.NewValidationError(module, field, value, "cannot be negative").
			WithHint("use 0 or a positive value")
	}
	return nil
}

// ValidatePowerOfTwo validates that value is a positive power of two.
func ValidatePowerOfTwo(module, field string, value int) error {
	if value <= 0 || value&(value-1) != 0 {
		return pferrors.NewValidationError(module, field, value, "must be a power of two").
			WithHint(fmt.Sprintf("try %d", NextPowerOfTwo(value)))
	}
	return nil
}

// ValidateAtMost validates that value does not exceed limit.
func ValidateAtMost(module, field string, value, limit int) error {
	if value > limit {
		return pferrors.NewValidationError(module, field, value, fmt.Sprintf("cannot exceed %d", limit))
	}
	return nil
}

// ValidateTimeout validates a wait timeout: negative values other than the
// infinite sentinel (-1ns) are rejected.
func ValidateTimeout(module, field string, value time.Duration) error {
	if value < -1 {
		return pferrors.NewValidationError(module, field, value, "must be -1 (infinite), 0 (poll) or positive").
			WithHint("use context cancellation instead of arbitrary negative timeouts")
	}
	return nil
}

// ValidateNotNil validates that an interface value is not nil.
func ValidateNotNil(module, field string, value interface{}) error {
	if value == nil {
		return pferrors.NewValidationError(module, field, nil, "cannot be nil").
			WithHint("provide a valid " + field)
	}
	return nil
}

// ValidateNotEmpty validates that a string value is not empty.
func ValidateNotEmpty(module, field string, value string) error {
	if value == "" {
		return pferrors.NewValidationError(module, field, value, "cannot be empty").
			WithHint("provide a non-empty " + field)
	}
	return nil
}

// NextPowerOfTwo rounds n up to the next power of two (1 for n <= 0).
func NextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
