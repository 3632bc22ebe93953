package validation

import (
	"testing"
	"time"

	"github.com/vnykmshr/poolflow/pkg/common/errors"
)

func checkValidation(t *testing.T, err error, wantError bool) {
	t.Helper()
	if wantError {
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !errors.IsValidationError(err) {
			t.Errorf("expected ValidationError, got %T", err)
		}
		return
	}
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestValidatePositive(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"positive value 1", 1, false},
		{"zero value", 0, true},
		{"negative value", -1, true},
		{"large positive", 1000000, false},
		{"large negative", -1000000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidation(t, ValidatePositive("test", "count", tt.value), tt.wantError)
		})
	}
}

func TestValidateNonNegative(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"positive value", 10, false},
		{"zero value", 0, false},
		{"negative value", -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidation(t, ValidateNonNegative("test", "count", tt.value), tt.wantError)
		})
	}
}

func TestValidatePowerOfTwo(t *testing.T) {
	tests := []struct {
		name      string
		value     int
		wantError bool
	}{
		{"one", 1, false},
		{"two", 2, false},
		{"sixty four", 64, false},
		{"three", 3, true},
		{"zero", 0, true},
		{"negative", -4, true},
		{"thousand", 1000, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidation(t, ValidatePowerOfTwo("workqueue", "local_capacity", tt.value), tt.wantError)
		})
	}
}

func TestValidateAtMost(t *testing.T) {
	checkValidation(t, ValidateAtMost("pool", "min", 3, 5), false)
	checkValidation(t, ValidateAtMost("pool", "min", 5, 5), false)
	checkValidation(t, ValidateAtMost("pool", "min", 6, 5), true)
}

func TestValidateTimeout(t *testing.T) {
	tests := []struct {
		name      string
		value     time.Duration
		wantError bool
	}{
		{"infinite", -1, false},
		{"poll", 0, false},
		{"bounded", time.Second, false},
		{"arbitrary negative", -time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidation(t, ValidateTimeout("test", "timeout", tt.value), tt.wantError)
		})
	}
}

func TestValidateNotNil(t *testing.T) {
	tests := []struct {
		name      string
		value     interface{}
		wantError bool
	}{
		{"non-nil int", 123, false},
		{"non-nil pointer", new(int), false},
		{"nil value", nil, true},
		{"nil pointer", (*int)(nil), false}, // typed nil is not nil interface
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkValidation(t, ValidateNotNil("test", "config", tt.value), tt.wantError)
		})
	}
}

func TestValidateNotEmpty(t *testing.T) {
	checkValidation(t, ValidateNotEmpty("test", "name", "value"), false)
	checkValidation(t, ValidateNotEmpty("test", "name", " "), false)
	checkValidation(t, ValidateNotEmpty("test", "name", ""), true)
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int }{
		{-3, 1}, {0, 1}, {1, 1}, {2, 2}, {3, 4}, {17, 32}, {1024, 1024}, {1025, 2048},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestValidationErrorDetails(t *testing.T) {
	err := ValidatePositive("container", "capacity", -5)

	valErr, ok := err.(*errors.ValidationError)
	if !ok {
		t.Fatalf("could not cast to ValidationError: %T", err)
	}
	if valErr.Module != "container" {
		t.Errorf("Module = %q, want %q", valErr.Module, "container")
	}
	if valErr.Field != "capacity" {
		t.Errorf("Field = %q, want %q", valErr.Field, "capacity")
	}
	if valErr.Value != -5 {
		t.Errorf("Value = %v, want %v", valErr.Value, -5)
	}
	if valErr.Hint != "value must be greater than 0" {
		t.Errorf("Hint = %q, want %q", valErr.Hint, "value must be greater than 0")
	}
	if !errors.Is(err, errors.ErrInvalidConfiguration) {
		t.Error("validation errors should wrap ErrInvalidConfiguration")
	}
}
