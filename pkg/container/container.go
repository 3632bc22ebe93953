package container

import (
	"context"
	"time"
)

// Container is the contract shared by Simple and Prioritized.
type Container[T any] interface {
	Name() string
	Add(value T, makeAvailable bool) (*Element[T], error)
	Release(el *Element[T]) error
	Owns(el *Element[T]) bool
	TryTake(ctx context.Context, timeout time.Duration) (*Element[T], bool, error)
	Take(ctx context.Context) (*Element[T], error)
	RescanContainer() error
	SweepFree(keep func(T) bool) (int, error)
	ProcessFreeElements(action func(T)) error
	ProcessAllElements(action func(T))
	Count() int
	AvailableCount() int
	BusyCount() int
	Stats() Stats
	IsClosed() bool
	Close() error
}

var (
	_ Container[int] = (*Simple[int])(nil)
	_ Container[int] = (*Prioritized[int])(nil)
)

// New creates a Prioritized container when config carries a Comparer and a
// Simple one otherwise.
func New[T any](config Config[T]) (Container[T], error) {
	if config.Comparer != nil {
		return NewPrioritized(config)
	}
	return NewSimple(config)
}
