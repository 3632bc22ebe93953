package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/poolflow/pkg/container"
)

// ElementOperations manages the lifecycle of pooled values.
type ElementOperations[T any] interface {
	// Create makes a new value. It is called when a rent finds no idle
	// element and the pool is below its maximum size.
	Create(ctx context.Context) (T, error)

	// IsValid reports whether a value may still be handed out. Invalid
	// values are destroyed on release and skipped on rent.
	IsValid(value T) bool

	// Destroy releases the resources of a value. It is called exactly once
	// for every value that Create returned.
	Destroy(value T)
}

// Pool represents an object pool that rents out values.
type Pool[T any] interface {
	// Name returns the pool name.
	Name() string

	// Rent blocks until a value is available or ctx is done.
	Rent(ctx context.Context) (*Rented[T], error)

	// TryRent follows the wait-timeout convention: 0 polls,
	// context.Infinite blocks, a positive timeout bounds the wait. A timeout
	// yields (nil, false, nil).
	TryRent(ctx context.Context, timeout time.Duration) (*Rented[T], bool, error)

	// Count returns the number of values owned by the pool.
	Count() int

	// AvailableCount returns the number of idle values.
	AvailableCount() int

	// RescanContainer removes idle values that became invalid or were
	// marked destroyed.
	RescanContainer() error

	// Stats returns lifetime counters.
	Stats() Stats

	// Close destroys idle values now and rented values when they are
	// released. Close is idempotent.
	Close() error
}

// Stats holds pool counters.
type Stats struct {
	Elements     int
	Available    int
	Created      int64
	Destroyed    int64
	CreateErrors int64
}

type releaser[T any] interface {
	release(el *container.Element[T]) error
}

// Rented is a value on loan from a pool. Release must be called exactly once
// when the caller is done; further calls are no-ops.
type Rented[T any] struct {
	el        *container.Element[T]
	owner     releaser[T]
	released  atomic.Bool
	onRelease func()
}

func newRented[T any](el *container.Element[T], owner releaser[T]) *Rented[T] {
	return &Rented[T]{el: el, owner: owner}
}

// Value returns the rented value.
func (r *Rented[T]) Value() T { return r.el.Value() }

// MarkDestroyed makes the pool destroy the value on release instead of
// reusing it.
func (r *Rented[T]) MarkDestroyed() { r.el.MarkDestroyed() }

// Release returns the value to the pool.
func (r *Rented[T]) Release() error {
	if !r.released.CompareAndSwap(false, true) {
		return nil
	}
	err := r.owner.release(r.el)
	if r.onRelease != nil {
		r.onRelease()
	}
	return err
}
