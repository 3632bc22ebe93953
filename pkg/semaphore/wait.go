package semaphore

import (
	"context"
	"time"

	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
)

// TryAcquire takes one permit without blocking.
func (s *Semaphore) TryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count > 0 {
		s.count--
		return true
	}
	return false
}

// Wait blocks until a permit is available or ctx is done. It returns the
// context error on cancellation; a permit granted while the cancellation was
// being observed is given back before returning.
func (s *Semaphore) Wait(ctx context.Context) error {
	// Check if context is already canceled
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	s.mu.Lock()

	// Fast path: permits available immediately
	if s.count > 0 {
		s.count--
		s.mu.Unlock()
		return nil
	}

	w := &waiter{ready: make(chan struct{})}
	elem := s.waiters.PushBack(w)
	s.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		if w.granted {
			// Lost the race with a Release: hand the permit on.
			s.count++
			s.notifyWaiters()
		} else {
			s.waiters.Remove(elem)
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

// WaitTimeout acquires one permit following the wait-timeout convention: 0
// polls, pfctx.Infinite blocks until ctx is done, a positive value bounds the
// wait. A timeout yields (false, nil). Cancellation of ctx yields a
// *errors.CancelError, and a ctx that is already done fails before any permit
// is touched.
func (s *Semaphore) WaitTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	if ctx.Err() != nil {
		return false, pferrors.NewCancelError("semaphore.Wait", ctx)
	}

	if s.TryAcquire() {
		return true, nil
	}
	if timeout == 0 {
		return false, nil
	}

	wctx, cancel := pfctx.WithWaitTimeout(ctx, timeout)
	defer cancel()

	if err := s.Wait(wctx); err != nil {
		if ctx.Err() != nil {
			return false, pferrors.NewCancelError("semaphore.Wait", ctx)
		}
		return false, nil
	}
	return true, nil
}
