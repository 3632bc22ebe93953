package workqueue

import (
	"runtime"
	"sync/atomic"
)

const defaultSegmentSize = 64

const (
	cellEmpty uint32 = iota
	cellFull
)

type cell[T any] struct {
	state atomic.Uint32
	value T
}

// segment is a single-use ring: every position is written once and read
// once. An enqueuer reserves a position by bumping tail; once tail passes
// the segment size the segment is frozen and later enqueuers move on to the
// next one.
type segment[T any] struct {
	cells []cell[T]
	head  atomic.Uint64
	tail  atomic.Uint64
	next  atomic.Pointer[segment[T]]
}

func newSegment[T any](size int) *segment[T] {
	return &segment[T]{cells: make([]cell[T], size)}
}

// segmentQueue is an unbounded lock-free MPMC FIFO built from linked
// segments.
type segmentQueue[T any] struct {
	head  atomic.Pointer[segment[T]]
	tail  atomic.Pointer[segment[T]]
	size  uint64
	count atomic.Int64
}

func newSegmentQueue[T any](segmentSize int) *segmentQueue[T] {
	if segmentSize <= 0 {
		segmentSize = defaultSegmentSize
	}
	q := &segmentQueue[T]{size: uint64(segmentSize)}
	s := newSegment[T](segmentSize)
	q.head.Store(s)
	q.tail.Store(s)
	return q
}

func (q *segmentQueue[T]) enqueue(item T) {
	for {
		seg := q.tail.Load()
		pos := seg.tail.Add(1) - 1
		if pos < q.size {
			c := &seg.cells[pos]
			c.value = item
			c.state.Store(cellFull)
			q.count.Add(1)
			return
		}

		// Frozen: make sure a successor exists and help advance tail.
		next := seg.next.Load()
		if next == nil {
			fresh := newSegment[T](int(q.size))
			if seg.next.CompareAndSwap(nil, fresh) {
				next = fresh
			} else {
				next = seg.next.Load()
			}
		}
		q.tail.CompareAndSwap(seg, next)
	}
}

// dequeue removes the oldest item. When a position was reserved but its
// enqueuer has not finished writing, dequeue waits for the write.
func (q *segmentQueue[T]) dequeue() (T, bool) {
	var zero T
	for {
		seg := q.head.Load()
		pos := seg.head.Load()

		if pos >= q.size {
			next := seg.next.Load()
			if next == nil {
				return zero, false
			}
			q.head.CompareAndSwap(seg, next)
			continue
		}

		if end := seg.tail.Load(); pos >= end {
			return zero, false
		}

		if !seg.head.CompareAndSwap(pos, pos+1) {
			continue
		}

		c := &seg.cells[pos]
		for c.state.Load() != cellFull {
			runtime.Gosched()
		}
		item := c.value
		c.value = zero
		q.count.Add(-1)
		return item, true
	}
}

func (q *segmentQueue[T]) len() int {
	n := q.count.Load()
	if n < 0 {
		return 0
	}
	return int(n)
}
