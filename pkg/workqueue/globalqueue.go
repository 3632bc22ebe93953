package workqueue

import (
	"context"
	"sync/atomic"
	"time"

	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/semaphore"
)

// GlobalQueue is the shared overflow queue. Two semaphores gate it: free
// counts the slots left under the bounded capacity and occupied counts the
// queued items.
//
// The bound is elastic. ExtendCapacity and ForceAdd hand out capacity IOUs;
// while IOUs are outstanding a take settles one instead of giving its slot
// back, so the queue shrinks back to its bound as it drains. With the
// accounting above, free + queued == capacity + outstanding IOUs holds at
// every quiescent point.
type GlobalQueue[T any] struct {
	items    *segmentQueue[T]
	free     *semaphore.Semaphore // nil when unbounded
	occupied *semaphore.Semaphore
	capacity int
	ious     atomic.Int64
	extended atomic.Int64
}

// NewGlobalQueue creates a queue bounded to capacity items. Zero means
// unbounded.
func NewGlobalQueue[T any](capacity, segmentSize int) *GlobalQueue[T] {
	g := &GlobalQueue[T]{
		items:    newSegmentQueue[T](segmentSize),
		occupied: semaphore.MustNew(0, 0),
		capacity: capacity,
	}
	if capacity > 0 {
		g.free = semaphore.MustNew(capacity, 0)
	}
	return g
}

// TryAdd enqueues item once a free slot is available, following the
// wait-timeout convention. A full queue after the timeout yields
// (false, nil).
func (g *GlobalQueue[T]) TryAdd(ctx context.Context, item T, timeout time.Duration) (bool, error) {
	if g.free != nil {
		ok, err := g.free.WaitTimeout(ctx, timeout)
		if err != nil || !ok {
			return false, err
		}
	} else if ctx.Err() != nil {
		return false, pferrors.NewCancelError("workqueue.GlobalQueue.TryAdd", ctx)
	}
	g.publish(item)
	return true, nil
}

// ForceAdd enqueues item regardless of the bound by issuing one capacity IOU.
func (g *GlobalQueue[T]) ForceAdd(item T) {
	if g.free != nil {
		g.ious.Add(1)
		g.extended.Add(1)
	}
	g.publish(item)
}

func (g *GlobalQueue[T]) publish(item T) {
	g.items.enqueue(item)
	// No ceiling on occupied, Release cannot fail.
	_ = g.occupied.Release(1)
}

// ExtendCapacity lets n more items in beyond the bound. The extra slots are
// reclaimed as items are taken.
func (g *GlobalQueue[T]) ExtendCapacity(n int) {
	if g.free == nil || n <= 0 {
		return
	}
	g.ious.Add(int64(n))
	g.extended.Add(int64(n))
	_ = g.free.Release(n)
}

// TryTake dequeues the oldest item following the wait-timeout convention.
func (g *GlobalQueue[T]) TryTake(ctx context.Context, timeout time.Duration) (T, bool, error) {
	var zero T
	ok, err := g.occupied.WaitTimeout(ctx, timeout)
	if err != nil || !ok {
		return zero, false, err
	}

	item, ok := g.items.dequeue()
	if !ok {
		return zero, false, pferrors.NewInvariantError("workqueue.GlobalQueue", "queue empty despite a held permit")
	}
	g.settleSlot()
	return item, true, nil
}

// settleSlot pays off one IOU if any is outstanding and otherwise returns
// the slot to the free semaphore.
func (g *GlobalQueue[T]) settleSlot() {
	if g.free == nil {
		return
	}
	for {
		n := g.ious.Load()
		if n <= 0 {
			_ = g.free.Release(1)
			return
		}
		if g.ious.CompareAndSwap(n, n-1) {
			return
		}
	}
}

// Count returns the number of queued items.
func (g *GlobalQueue[T]) Count() int { return g.occupied.Count() }

// BoundedCapacity returns the configured bound, 0 when unbounded.
func (g *GlobalQueue[T]) BoundedCapacity() int { return g.capacity }

// ExtendedCapacity returns the number of capacity IOUs still outstanding.
func (g *GlobalQueue[T]) ExtendedCapacity() int { return int(g.ious.Load()) }

// TotalExtensions returns the number of IOUs ever issued.
func (g *GlobalQueue[T]) TotalExtensions() int64 { return g.extended.Load() }

// FreeSlots returns the number of items that can be added without waiting.
// It is -1 when the queue is unbounded.
func (g *GlobalQueue[T]) FreeSlots() int {
	if g.free == nil {
		return -1
	}
	return g.free.Count()
}
