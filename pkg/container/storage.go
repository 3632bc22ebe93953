package container

import (
	"sync"
	"sync/atomic"
)

const minSlots = 4

type slotArray[T any] struct {
	slots []atomic.Pointer[Element[T]]
}

// storage is a sparse slot array with stable indices. Writers serialize on
// mu; readers take one snapshot of the backing array and scan it without
// locking. A snapshot may be stale, so scan results are advisory and must be
// confirmed by an atomic claim.
type storage[T any] struct {
	mu        sync.Mutex
	data      atomic.Pointer[slotArray[T]]
	used      atomic.Int32
	top       atomic.Int32 // one past the highest occupied slot
	firstFree int          // no empty slot below this index; guarded by mu
}

func (s *storage[T]) init(capacity int) {
	if capacity < minSlots {
		capacity = minSlots
	}
	s.data.Store(&slotArray[T]{slots: make([]atomic.Pointer[Element[T]], capacity)})
}

// snapshot returns the current backing slots and the scan bound.
func (s *storage[T]) snapshot() ([]atomic.Pointer[Element[T]], int) {
	slots := s.data.Load().slots
	top := int(s.top.Load())
	if top > len(slots) {
		top = len(slots)
	}
	return slots, top
}

func (s *storage[T]) at(index int) *Element[T] {
	slots := s.data.Load().slots
	if index < 0 || index >= len(slots) {
		return nil
	}
	return slots[index].Load()
}

func (s *storage[T]) count() int { return int(s.used.Load()) }

func (s *storage[T]) capacity() int { return len(s.data.Load().slots) }

// add stores el in the lowest empty slot, growing the array by doubling when
// full, and returns the assigned index.
func (s *storage[T]) add(el *Element[T]) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	arr := s.data.Load()
	idx := s.lowestFreeFrom(arr, s.firstFree, len(arr.slots))
	if idx == len(arr.slots) {
		arr = s.grow(arr)
	}

	el.index.Store(int32(idx))
	arr.slots[idx].Store(el)
	s.used.Add(1)
	s.firstFree = idx + 1
	if int32(idx+1) > s.top.Load() {
		s.top.Store(int32(idx + 1))
	}
	return idx
}

// grow must be called with mu held.
func (s *storage[T]) grow(old *slotArray[T]) *slotArray[T] {
	next := &slotArray[T]{slots: make([]atomic.Pointer[Element[T]], len(old.slots)*2)}
	for i := range old.slots {
		next.slots[i].Store(old.slots[i].Load())
	}
	s.data.Store(next)
	return next
}

// lowestFreeFrom must be called with mu held.
func (s *storage[T]) lowestFreeFrom(arr *slotArray[T], from, limit int) int {
	for from < limit && arr.slots[from].Load() != nil {
		from++
	}
	return from
}

// remove clears the slot holding el. It returns false if el is not stored at
// its recorded index, so a stale index never evicts a different element.
func (s *storage[T]) remove(el *Element[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := int(el.index.Load())
	arr := s.data.Load()
	if idx < 0 || idx >= len(arr.slots) || arr.slots[idx].Load() != el {
		return false
	}
	s.clear(arr, idx)
	el.index.Store(noIndex)
	return true
}

// removeAt clears slot index. It returns false if the slot was already empty.
func (s *storage[T]) removeAt(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	arr := s.data.Load()
	if index < 0 || index >= len(arr.slots) {
		return false
	}
	el := arr.slots[index].Load()
	if el == nil {
		return false
	}
	s.clear(arr, index)
	el.index.CompareAndSwap(int32(index), noIndex)
	return true
}

// clear must be called with mu held.
func (s *storage[T]) clear(arr *slotArray[T], idx int) {
	arr.slots[idx].Store(nil)
	s.used.Add(-1)
	if idx < s.firstFree {
		s.firstFree = idx
	}
	s.shrinkTop(arr)
}

// shrinkTop must be called with mu held.
func (s *storage[T]) shrinkTop(arr *slotArray[T]) {
	top := int(s.top.Load())
	for top > 0 && arr.slots[top-1].Load() == nil {
		top--
	}
	s.top.Store(int32(top))
}

// compactElement moves a Busy element down to the lowest empty slot below its
// current index. The element's recorded index changes together with the move.
// It returns true if the element was relocated.
func (s *storage[T]) compactElement(el *Element[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := int(el.index.Load())
	if idx <= s.firstFree {
		return false
	}
	arr := s.data.Load()
	if idx >= len(arr.slots) || arr.slots[idx].Load() != el {
		return false
	}

	target := s.lowestFreeFrom(arr, s.firstFree, idx)
	s.firstFree = target
	if target >= idx {
		return false
	}

	arr.slots[target].Store(el)
	el.index.Store(int32(target))
	arr.slots[idx].Store(nil)
	s.firstFree = target + 1
	s.shrinkTop(arr)
	return true
}
