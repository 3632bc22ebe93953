package container

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"
)

// Prioritized hands out the best (or worst) available element according to
// a Comparer. Selection scans a snapshot of the slot storage without locks
// and claims a candidate with a single CAS, so under concurrent use the
// result is among the best known at scan time rather than the global best.
type Prioritized[T any] struct {
	*core[T]
	comparer    Comparer[T]
	retryWindow int
	cursor      atomic.Int32
}

// NewPrioritized creates an empty Prioritized container. config.Comparer is
// required.
func NewPrioritized[T any](config Config[T]) (*Prioritized[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Comparer == nil {
		return nil, validationNoComparer()
	}
	config = config.withDefaults()

	p := &Prioritized[T]{
		comparer:    config.Comparer,
		retryWindow: config.ScanRetryWindow,
	}
	p.core = newCore(config, "container.prioritized", p)
	return p, nil
}

// TryTakeWorst is TryTake selecting the worst available element.
func (p *Prioritized[T]) TryTakeWorst(ctx context.Context, timeout time.Duration) (*Element[T], bool, error) {
	return p.take(ctx, timeout, claimWorst)
}

// TakeWorst is Take selecting the worst available element.
func (p *Prioritized[T]) TakeWorst(ctx context.Context) (*Element[T], error) {
	return p.mustTake(ctx, claimWorst)
}

// Available elements are found by scanning, there is nothing to publish to.
func (p *Prioritized[T]) publish(*Element[T]) {}

// claim scans until it wins a candidate. A held permit guarantees an
// unclaimed Available element exists, so the loop only repeats while other
// takers win the races; every retryWindow lost scans it logs and yields.
func (p *Prioritized[T]) claim(mode claimMode) *Element[T] {
	for attempt := 1; ; attempt++ {
		var el *Element[T]
		switch mode {
		case claimWorst:
			el = p.tryTakeWorst()
		case claimAny:
			el = p.tryTakeAny()
		default:
			el = p.tryTakeBest()
		}
		if el != nil {
			return el
		}
		if p.store.count() == 0 {
			return nil
		}
		if attempt%p.retryWindow == 0 {
			p.log.Warn().Int("attempts", attempt).Int("count", p.store.count()).
				Msg("claim scan keeps losing races")
			runtime.Gosched()
		}
	}
}

// tryTakeBest scans for the three best candidates and claims the first one
// still available. A candidate for which the comparer requests a stop is
// claimed during the scan.
func (p *Prioritized[T]) tryTakeBest() *Element[T] {
	slots, top := p.store.snapshot()
	var c1, c2, c3 *Element[T]
	for i := 0; i < top; i++ {
		el := slots[i].Load()
		if el == nil || !el.IsAvailable() {
			continue
		}

		ref := el
		if c1 != nil {
			ref = c1
		}
		result, stop := p.comparer.Compare(el.value, ref.value)
		if stop {
			if el.makeBusyAtomic() {
				return el
			}
			continue
		}

		switch {
		case c1 == nil:
			c1 = el
		case result > 0:
			c1, c2, c3 = el, c1, c2
		case c2 == nil || p.better(el, c2):
			c2, c3 = el, c2
		case c3 == nil || p.better(el, c3):
			c3 = el
		}
	}
	return claimFirst(c1, c2, c3)
}

// tryTakeWorst is the dual of tryTakeBest without early stopping.
func (p *Prioritized[T]) tryTakeWorst() *Element[T] {
	slots, top := p.store.snapshot()
	var c1, c2, c3 *Element[T]
	for i := 0; i < top; i++ {
		el := slots[i].Load()
		if el == nil || !el.IsAvailable() {
			continue
		}

		switch {
		case c1 == nil:
			c1 = el
		case p.better(c1, el):
			c1, c2, c3 = el, c1, c2
		case c2 == nil || p.better(c2, el):
			c2, c3 = el, c2
		case c3 == nil || p.better(c3, el):
			c3 = el
		}
	}
	return claimFirst(c1, c2, c3)
}

// tryTakeAny claims the first available element after a rotating cursor.
// Draining loops use it so a full sweep stays linear.
func (p *Prioritized[T]) tryTakeAny() *Element[T] {
	slots, top := p.store.snapshot()
	if top == 0 {
		return nil
	}
	start := int(p.cursor.Load())
	if start >= top || start < 0 {
		start = 0
	}
	for n := 0; n < top; n++ {
		i := (start + n) % top
		if el := slots[i].Load(); el != nil && el.makeBusyAtomic() {
			p.cursor.Store(int32(i + 1))
			return el
		}
	}
	return nil
}

func (p *Prioritized[T]) better(a, b *Element[T]) bool {
	result, _ := p.comparer.Compare(a.value, b.value)
	return result > 0
}

func claimFirst[T any](candidates ...*Element[T]) *Element[T] {
	for _, el := range candidates {
		if el != nil && el.makeBusyAtomic() {
			return el
		}
	}
	return nil
}
