// Package context holds the wait-timeout conventions shared by blocking
// operations: a zero timeout polls, Infinite blocks until the context is
// done, and a positive timeout bounds the wait.
package context

import (
	"context"
	"time"
)

// Infinite is the timeout sentinel meaning "wait until the context is done".
const Infinite time.Duration = -1

// WithWaitTimeout derives a context bounded by timeout. For Infinite (or any
// negative value) the parent is returned with a no-op cancel.
func WithWaitTimeout(parent context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout < 0 {
		return parent, func() {}
	}
	return context.WithTimeout(parent, timeout)
}

// IsCanceled returns true if the context has been canceled
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

// Budget tracks the remaining part of a wait timeout across several blocking
// steps. Elapsed time comes from the monotonic clock reading embedded in
// time.Time, so wall clock jumps do not shrink or extend the budget.
type Budget struct {
	start   time.Time
	timeout time.Duration
}

// StartBudget begins tracking timeout from now.
func StartBudget(timeout time.Duration) Budget {
	if timeout < 0 {
		timeout = Infinite
	}
	return Budget{start: time.Now(), timeout: timeout}
}

// Infinite reports whether the budget never expires.
func (b Budget) Infinite() bool { return b.timeout < 0 }

// Remaining returns the time left, Infinite for an unbounded budget, and 0
// once the budget is spent.
func (b Budget) Remaining() time.Duration {
	if b.timeout < 0 {
		return Infinite
	}
	left := b.timeout - time.Since(b.start)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether a bounded budget has no time left.
func (b Budget) Expired() bool {
	return b.timeout >= 0 && b.Remaining() == 0
}

// Min returns the smaller of the remaining budget and d, treating Infinite
// as larger than any duration.
func (b Budget) Min(d time.Duration) time.Duration {
	left := b.Remaining()
	switch {
	case left < 0:
		return d
	case d < 0:
		return left
	case d < left:
		return d
	default:
		return left
	}
}
