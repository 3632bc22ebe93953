package container

import "sync/atomic"

// freeList is a lock-free stack of slot indices. The head word packs the top
// index (biased by one so zero means empty) with a tag bumped on every
// successful update, which rules out ABA between a read of the head and its
// CAS. The link to the next index lives in the element itself.
type freeList[T any] struct {
	head atomic.Uint64
	size atomic.Int32
}

func packHead(index int32, tag uint32) uint64 {
	return uint64(tag)<<32 | uint64(uint32(index+1))
}

func unpackHead(h uint64) (index int32, tag uint32) {
	return int32(uint32(h)) - 1, uint32(h >> 32)
}

// push publishes el. The element must be Available and must not move in
// storage until it is popped.
func (f *freeList[T]) push(el *Element[T]) {
	idx := el.index.Load()
	for {
		h := f.head.Load()
		top, tag := unpackHead(h)
		el.nextFree.Store(top)
		if f.head.CompareAndSwap(h, packHead(idx, tag+1)) {
			f.size.Add(1)
			return
		}
	}
}

// pop removes the most recently pushed element. It returns nil only if the
// list is empty.
func (f *freeList[T]) pop(s *storage[T]) *Element[T] {
	for {
		h := f.head.Load()
		top, tag := unpackHead(h)
		if top < 0 {
			return nil
		}
		el := s.at(int(top))
		if el == nil {
			if f.head.Load() == h {
				return nil
			}
			continue
		}
		if f.head.CompareAndSwap(h, packHead(el.nextFree.Load(), tag+1)) {
			f.size.Add(-1)
			return el
		}
	}
}

func (f *freeList[T]) len() int { return int(f.size.Load()) }
