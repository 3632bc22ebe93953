package workqueue

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// LocalQueue is a fixed-capacity work-stealing deque owned by one worker.
//
// The owner adds and takes at the tail (LIFO), any goroutine steals at the
// head (FIFO). Owner operations are uncontended except when a single item is
// left; steals race with each other through a CAS on head.
//
// TryAdd and TryTake must only be called by the owner. TrySteal and Count
// are safe from any goroutine.
type LocalQueue[T any] struct {
	_    cpu.CacheLinePad
	head atomic.Int64 // steal end, advanced by CAS
	_    cpu.CacheLinePad
	tail atomic.Int64 // owner end
	_    cpu.CacheLinePad

	slots      []atomic.Pointer[T]
	mask       int64
	controller *Controller[T]
	detached   atomic.Bool
}

func newLocalQueue[T any](capacity int, controller *Controller[T]) *LocalQueue[T] {
	return &LocalQueue[T]{
		slots:      make([]atomic.Pointer[T], capacity),
		mask:       int64(capacity - 1),
		controller: controller,
	}
}

// TryAdd pushes item at the tail. It returns false when the queue is full.
func (q *LocalQueue[T]) TryAdd(item T) bool {
	t := q.tail.Load()
	h := q.head.Load()
	if t-h >= int64(len(q.slots)) {
		return false
	}
	q.slots[t&q.mask].Store(&item)
	q.tail.Store(t + 1)
	return true
}

// TryTake pops the most recently added item.
func (q *LocalQueue[T]) TryTake() (T, bool) {
	var zero T

	t := q.tail.Load() - 1
	q.tail.Store(t)
	h := q.head.Load()

	if h > t {
		// Empty: restore.
		q.tail.Store(t + 1)
		return zero, false
	}

	slot := &q.slots[t&q.mask]
	p := slot.Load()
	if h < t {
		slot.Store(nil)
		return *p, true
	}

	// Last item: race thieves for it.
	won := q.head.CompareAndSwap(h, h+1)
	q.tail.Store(t + 1)
	if !won || p == nil {
		return zero, false
	}
	return *p, true
}

// TrySteal takes the oldest item. It retries while other thieves win the
// race and gives up once the queue is seen empty.
func (q *LocalQueue[T]) TrySteal() (T, bool) {
	var zero T
	for {
		h := q.head.Load()
		t := q.tail.Load()
		if h >= t {
			return zero, false
		}
		p := q.slots[h&q.mask].Load()
		if q.head.CompareAndSwap(h, h+1) {
			if p == nil {
				continue
			}
			return *p, true
		}
	}
}

// Count returns the approximate number of queued items.
func (q *LocalQueue[T]) Count() int {
	n := q.tail.Load() - q.head.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}

// Capacity returns the fixed capacity.
func (q *LocalQueue[T]) Capacity() int { return len(q.slots) }
