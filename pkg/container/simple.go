package container

// Simple hands out available elements in approximately LIFO order through a
// lock-free free list. Take and Release are O(1).
type Simple[T any] struct {
	*core[T]
	free freeList[T]
}

// NewSimple creates an empty Simple container.
func NewSimple[T any](config Config[T]) (*Simple[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config = config.withDefaults()

	s := &Simple[T]{}
	s.core = newCore(config, "container.simple", s)
	return s, nil
}

func (s *Simple[T]) publish(el *Element[T]) {
	s.free.push(el)
}

// claim pops the free list. Elements on the list are Available and only the
// popper changes their state, so the unconditional transition is safe.
func (s *Simple[T]) claim(claimMode) *Element[T] {
	el := s.free.pop(&s.store)
	if el != nil {
		el.makeBusy()
	}
	return el
}
