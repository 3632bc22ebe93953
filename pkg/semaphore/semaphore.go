package semaphore

import (
	"container/list"
	"sync"

	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/validation"
)

// Semaphore is a counting semaphore whose blocking waits honour context
// cancellation. Permits are handed to waiters in FIFO order.
type Semaphore struct {
	mu      sync.Mutex
	count   int
	max     int // <= 0 means no ceiling
	waiters list.List
}

// waiter represents a goroutine blocked in Wait
type waiter struct {
	ready   chan struct{} // closed when a permit is handed over
	granted bool
}

// Config holds configuration options for creating a Semaphore.
type Config struct {
	// Initial is the number of permits available at creation.
	Initial int

	// Max is the ceiling for the permit count. Zero or negative means the
	// count may grow without bound.
	Max int
}

// New creates a semaphore with initial permits and an optional ceiling.
func New(initial, max int) (*Semaphore, error) {
	return NewWithConfig(Config{Initial: initial, Max: max})
}

// NewWithConfig creates a semaphore from config.
func NewWithConfig(config Config) (*Semaphore, error) {
	if err := validation.ValidateNonNegative("semaphore", "initial", config.Initial); err != nil {
		return nil, err
	}
	if config.Max > 0 {
		if err := validation.ValidateAtMost("semaphore", "initial", config.Initial, config.Max); err != nil {
			return nil, err
		}
	}
	return &Semaphore{count: config.Initial, max: config.Max}, nil
}

// MustNew is like New but panics on invalid arguments.
func MustNew(initial, max int) *Semaphore {
	s, err := New(initial, max)
	if err != nil {
		panic("invalid semaphore configuration: " + err.Error())
	}
	return s
}

// Count returns the number of permits currently available.
func (s *Semaphore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Max returns the configured ceiling, or 0 if there is none.
func (s *Semaphore) Max() int {
	if s.max <= 0 {
		return 0
	}
	return s.max
}

// Waiting returns the number of goroutines blocked in Wait.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waiters.Len()
}

// Release adds n permits, waking waiters first. It returns
// ErrCapacityExceeded without changing state if the ceiling would be passed.
func (s *Semaphore) Release(n int) error {
	if n <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && s.count+n-s.waiters.Len() > s.max {
		return pferrors.NewOperationError("semaphore", "Release", pferrors.ErrCapacityExceeded)
	}

	s.count += n
	s.notifyWaiters()
	return nil
}

// notifyWaiters hands available permits to queued waiters.
// Must be called with s.mu held.
func (s *Semaphore) notifyWaiters() {
	for s.count > 0 {
		front := s.waiters.Front()
		if front == nil {
			return
		}
		w := front.Value.(*waiter)
		s.waiters.Remove(front)
		s.count--
		w.granted = true
		close(w.ready)
	}
}
