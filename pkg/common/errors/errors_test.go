package errors

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrClosed", ErrClosed, "resource is closed"},
		{"ErrTimeout", ErrTimeout, "operation timed out"},
		{"ErrCapacityExceeded", ErrCapacityExceeded, "capacity exceeded"},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrCanceled", ErrCanceled, "operation canceled"},
		{"ErrInvariantViolation", ErrInvariantViolation, "invariant violation"},
		{"ErrForeignElement", ErrForeignElement, "element belongs to another container"},
		{"ErrRemoved", ErrRemoved, "element already removed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatal("error should not be nil")
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "container",
				Field:  "capacity",
				Value:  -1,
				Reason: "must be positive",
			},
			want: "container: invalid capacity=-1 (must be positive)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "workqueue",
				Field:  "local_capacity",
				Value:  0,
				Reason: "must be positive",
				Hint:   "use a value greater than 0",
			},
			want: "workqueue: invalid local_capacity=0 (must be positive) - use a value greater than 0",
		},
		{
			name: "string value",
			err: &ValidationError{
				Module: "maintenance",
				Field:  "spec",
				Value:  "",
				Reason: "cannot be empty",
			},
			want: "maintenance: invalid spec= (cannot be empty)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := &ValidationError{
		Module: "test",
		Field:  "field",
		Value:  0,
		Reason: "test",
	}

	unwrapped := verr.Unwrap()
	if unwrapped != ErrInvalidConfiguration {
		t.Errorf("Unwrap() = %v, want ErrInvalidConfiguration", unwrapped)
	}

	if !errors.Is(verr, ErrInvalidConfiguration) {
		t.Error("ValidationError should wrap ErrInvalidConfiguration")
	}
}

func TestOperationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *OperationError
		want string
	}{
		{
			name: "without context",
			err: &OperationError{
				Module:    "pool",
				Operation: "Create",
				Cause:     errors.New("dial failed"),
			},
			want: "pool.Create failed: dial failed",
		},
		{
			name: "with context",
			err: &OperationError{
				Module:    "threadpool",
				Operation: "Submit",
				Cause:     errors.New("queue full"),
				Context:   "exceeded capacity of 100",
			},
			want: "threadpool.Submit failed: queue full (exceeded capacity of 100)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOperationError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	opErr := &OperationError{
		Module:    "test",
		Operation: "test",
		Cause:     cause,
	}

	unwrapped := opErr.Unwrap()
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(opErr, cause) {
		t.Error("OperationError should wrap the cause error")
	}
}

func TestBuilders(t *testing.T) {
	verr := NewValidationError("pool.dynamic", "MaxElements", 0, "must be positive")
	if verr.WithHint("set MaxElements") != verr {
		t.Error("WithHint should return the receiver")
	}
	operr := NewOperationError("threadpool", "Submit", ErrClosed)
	if operr.WithContext("jobs") != operr {
		t.Error("WithContext should return the receiver")
	}

	tests := []struct {
		name  string
		err   error
		parts []string
	}{
		{"validation", verr, []string{"pool.dynamic", "MaxElements", "0", "must be positive", "set MaxElements"}},
		{"operation", operr, []string{"threadpool.Submit", "resource is closed", "jobs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, part := range tt.parts {
				if !strings.Contains(msg, part) {
					t.Errorf("error message should contain %q, got %q", part, msg)
				}
			}
		})
	}
}

func TestClassifiers(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name       string
		err        error
		closed     bool
		cancelled  bool
		validation bool
	}{
		{"closed", ErrClosed, true, false, false},
		{"wrapped closed", NewOperationError("container.simple", "Take", ErrClosed), true, false, false},
		{"cancel", NewCancelError("pool.Rent", canceled), false, true, false},
		{"wrapped cancel", NewOperationError("pool", "Rent", NewCancelError("x", canceled)), false, true, false},
		{"validation", NewValidationError("m", "f", 1, "r"), false, false, true},
		{"wrapped validation", &OperationError{Cause: NewValidationError("m", "f", 1, "r")}, false, false, true},
		{"timeout", ErrTimeout, false, false, false},
		{"nil", nil, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(tt.err); got != tt.closed {
				t.Errorf("IsClosed() = %v, want %v", got, tt.closed)
			}
			if got := IsCanceled(tt.err); got != tt.cancelled {
				t.Errorf("IsCanceled() = %v, want %v", got, tt.cancelled)
			}
			if got := IsValidationError(tt.err); got != tt.validation {
				t.Errorf("IsValidationError() = %v, want %v", got, tt.validation)
			}
		})
	}
}

func TestCancelError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewCancelError("container.Take", ctx)
	if !errors.Is(err, ErrCanceled) {
		t.Error("CancelError should match ErrCanceled")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("CancelError should match the context cause")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.Error("explicit cancel should not match DeadlineExceeded")
	}
	if !IsCanceled(err) {
		t.Error("IsCanceled should report true")
	}
	if !strings.Contains(err.Error(), "container.Take") {
		t.Errorf("error message should name the operation, got %q", err.Error())
	}
}

func TestCancelError_Deadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	err := NewCancelError("workqueue.Take", ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("CancelError should carry DeadlineExceeded")
	}
}

func TestInvariantError(t *testing.T) {
	err := NewInvariantError("container", "free list empty with %d permits", 3)

	if !errors.Is(err, ErrInvariantViolation) {
		t.Error("InvariantError should match ErrInvariantViolation")
	}
	if errors.Is(err, ErrCanceled) {
		t.Error("InvariantError should not match ErrCanceled")
	}

	msg := err.Error()
	for _, part := range []string{"container", "invariant violation", "free list empty with 3 permits"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error message should contain %q, got %q", part, msg)
		}
	}
}
