package container

import "sync/atomic"

// Element lifecycle states. Destroyed-pending is a separate sticky flag so it
// can be set regardless of the current state.
const (
	stateBusy int32 = iota
	stateAvailable
	stateRemoved
)

const noIndex = -1

// Element wraps one pooled value together with its lifecycle state and the
// slot it occupies in the owning container.
type Element[T any] struct {
	value     T
	state     atomic.Int32
	destroyed atomic.Bool
	index     atomic.Int32
	nextFree  atomic.Int32 // free list link, meaningful only while Available in a Simple container
	owner     *core[T]
}

func newElement[T any](value T, owner *core[T]) *Element[T] {
	el := &Element[T]{value: value, owner: owner}
	el.state.Store(stateBusy)
	el.index.Store(noIndex)
	el.nextFree.Store(noIndex)
	return el
}

// Value returns the wrapped value.
func (e *Element[T]) Value() T { return e.value }

// Index returns the slot currently holding the element, or -1 once removed.
// Compaction may move a Busy element, so the result must not be cached.
func (e *Element[T]) Index() int { return int(e.index.Load()) }

// IsBusy reports whether the element is handed out.
func (e *Element[T]) IsBusy() bool { return e.state.Load() == stateBusy }

// IsAvailable reports whether the element can be taken.
func (e *Element[T]) IsAvailable() bool { return e.state.Load() == stateAvailable }

// IsRemoved reports whether the element left its container for good.
func (e *Element[T]) IsRemoved() bool { return e.state.Load() == stateRemoved }

// IsDestroyed reports whether MarkDestroyed was called.
func (e *Element[T]) IsDestroyed() bool { return e.destroyed.Load() }

// MarkDestroyed flags the element for removal. It is safe from any goroutine
// at any time; the container removes the element the next time it passes
// through Release, a take, or a rescan.
func (e *Element[T]) MarkDestroyed() { e.destroyed.Store(true) }

// makeBusy flips an element the caller already owns exclusively.
func (e *Element[T]) makeBusy() { e.state.Store(stateBusy) }

// makeBusyAtomic claims an Available element. It fails, leaving the state
// untouched, if the element was taken or removed concurrently.
func (e *Element[T]) makeBusyAtomic() bool {
	return e.state.CompareAndSwap(stateAvailable, stateBusy)
}

// makeAvailableAtomic publishes a Busy element. It fails if the element was
// removed concurrently.
func (e *Element[T]) makeAvailableAtomic() bool {
	return e.state.CompareAndSwap(stateBusy, stateAvailable)
}

// markRemoved moves the element to its terminal state. Only the first caller
// gets true.
func (e *Element[T]) markRemoved() bool {
	for {
		s := e.state.Load()
		if s == stateRemoved {
			return false
		}
		if e.state.CompareAndSwap(s, stateRemoved) {
			return true
		}
	}
}
