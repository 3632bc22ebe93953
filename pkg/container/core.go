package container

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/logging"
	"github.com/vnykmshr/poolflow/pkg/semaphore"
)

type claimMode int

const (
	claimBest claimMode = iota
	claimWorst
	claimAny
)

// selector is the flavor-specific half of a container: how an Available
// element is published and how a permit holder picks one.
type selector[T any] interface {
	publish(el *Element[T])
	// claim returns a Busy element or nil if none could be found. The caller
	// holds one permit of the occupied semaphore.
	claim(mode claimMode) *Element[T]
}

// Stats is a point-in-time view of a container.
type Stats struct {
	Count     int
	Available int
	Busy      int
	Takes     uint64
	Removals  uint64
}

// core implements the behavior both flavors share: slot storage, the
// occupied semaphore that counts Available elements, destroyed-element
// removal and disposal.
type core[T any] struct {
	name      string
	module    string
	store     storage[T]
	occupied  *semaphore.Semaphore
	sel       selector[T]
	closed    atomic.Bool
	closing   context.Context
	markClose context.CancelFunc
	onAdded   func(T)
	onRemoved func(T)
	takes     atomic.Uint64
	removals  atomic.Uint64
	log       zerolog.Logger
}

func newCore[T any](cfg Config[T], module string, sel selector[T]) *core[T] {
	c := &core[T]{
		name:      cfg.Name,
		module:    module,
		occupied:  semaphore.MustNew(0, 0),
		sel:       sel,
		onAdded:   cfg.OnAdded,
		onRemoved: cfg.OnRemoved,
		log:       logging.Component(logging.OrNop(cfg.Logger), module, cfg.Name),
	}
	c.store.init(cfg.InitialSlots)
	c.closing, c.markClose = context.WithCancel(context.Background())
	return c
}

// Name returns the configured container name.
func (c *core[T]) Name() string { return c.name }

// Add stores value as a new element. The element starts Busy and is handed
// to the caller; with makeAvailable it goes straight through Release instead
// and becomes available to takers. When Add fails the caller still owns
// value and no hook has run for it.
func (c *core[T]) Add(value T, makeAvailable bool) (*Element[T], error) {
	if c.closed.Load() {
		return nil, c.closedErr("Add")
	}
	if c.store.count() >= MaxSlots {
		return nil, pferrors.NewOperationError(c.module, "Add", pferrors.ErrCapacityExceeded).WithContext(c.name)
	}

	el := newElement(value, c)
	c.store.add(el)

	// Close may have drained between the check above and the store. The
	// value was never visible, so the hooks do not run for it.
	if c.closed.Load() {
		if el.markRemoved() {
			c.store.remove(el)
		}
		return nil, c.closedErr("Add")
	}
	if c.onAdded != nil {
		c.onAdded(value)
	}

	if makeAvailable {
		if err := c.Release(el); err != nil {
			return nil, err
		}
	}
	return el, nil
}

// Owns reports whether el was added to this container. Removed elements
// keep their owner.
func (c *core[T]) Owns(el *Element[T]) bool {
	return el != nil && el.owner == c
}

// Release returns a Busy element. A destroyed element, or any element
// released after Close, is removed instead of republished.
func (c *core[T]) Release(el *Element[T]) error {
	switch {
	case el == nil:
		return pferrors.NewOperationError(c.module, "Release", pferrors.ErrForeignElement).
			WithContext("nil element")
	case !c.Owns(el):
		return pferrors.NewOperationError(c.module, "Release", pferrors.ErrForeignElement)
	case el.IsRemoved():
		return pferrors.NewOperationError(c.module, "Release", pferrors.ErrRemoved)
	case !el.IsBusy():
		return pferrors.NewInvariantError(c.module, "release of element in slot %d that is not busy", el.Index())
	}

	if el.IsDestroyed() || c.closed.Load() {
		if !c.remove(el) {
			return pferrors.NewOperationError(c.module, "Release", pferrors.ErrRemoved)
		}
		return nil
	}

	c.store.compactElement(el)
	if !el.makeAvailableAtomic() {
		return pferrors.NewInvariantError(c.module, "release of element in slot %d that is not busy", el.Index())
	}
	c.sel.publish(el)
	// The occupied semaphore has no ceiling, Release cannot fail.
	_ = c.occupied.Release(1)

	if c.closed.Load() {
		c.drain()
	}
	return nil
}

// TryTake takes an available element following the wait-timeout
// convention: 0 polls, Infinite blocks, a positive timeout bounds the wait.
// A timeout yields (nil, false, nil). A canceled ctx yields a
// *errors.CancelError, and a ctx that is already done fails before anything
// is consumed.
func (c *core[T]) TryTake(ctx context.Context, timeout time.Duration) (*Element[T], bool, error) {
	return c.take(ctx, timeout, claimBest)
}

// Take blocks until an element is available, ctx is done or the container
// is closed.
func (c *core[T]) Take(ctx context.Context) (*Element[T], error) {
	return c.mustTake(ctx, claimBest)
}

func (c *core[T]) mustTake(ctx context.Context, mode claimMode) (*Element[T], error) {
	el, ok, err := c.take(ctx, pfctx.Infinite, mode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pferrors.NewInvariantError(c.module, "infinite take returned without an element")
	}
	return el, nil
}

func (c *core[T]) take(ctx context.Context, timeout time.Duration, mode claimMode) (*Element[T], bool, error) {
	op := takeOp(mode)
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return nil, false, pferrors.NewCancelError(c.module+"."+op, ctx)
	}
	if c.closed.Load() {
		return nil, false, c.closedErr(op)
	}

	wctx := ctx
	if timeout != 0 {
		var cancel context.CancelFunc
		wctx, cancel = context.WithCancel(ctx)
		defer cancel()
		stop := context.AfterFunc(c.closing, cancel)
		defer stop()
	}

	budget := pfctx.StartBudget(timeout)
	for {
		ok, err := c.occupied.WaitTimeout(wctx, budget.Remaining())
		if err != nil {
			if ctx.Err() != nil {
				return nil, false, pferrors.NewCancelError(c.module+"."+op, ctx)
			}
			if c.closed.Load() {
				return nil, false, c.closedErr(op)
			}
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}

		el := c.sel.claim(mode)
		if el == nil {
			err := pferrors.NewInvariantError(c.module, "no element to claim despite a held permit")
			c.log.Error().Err(err).Int("count", c.store.count()).Msg("take failed")
			return nil, false, err
		}

		if el.IsDestroyed() {
			c.remove(el)
			continue
		}
		if c.closed.Load() {
			c.remove(el)
			return nil, false, c.closedErr(op)
		}
		c.takes.Add(1)
		return el, true, nil
	}
}

func takeOp(mode claimMode) string {
	if mode == claimWorst {
		return "TakeWorst"
	}
	return "Take"
}

// RescanContainer takes every available element and releases it again, so
// elements marked destroyed while idle are removed.
func (c *core[T]) RescanContainer() error {
	if c.closed.Load() {
		return c.closedErr("RescanContainer")
	}
	taken, err := c.drainAvailable()
	c.releaseAll(taken)
	return err
}

// SweepFree runs keep on every available value. Values for which keep
// returns false are destroyed and removed, the others are released again.
// It returns the number of removed elements.
func (c *core[T]) SweepFree(keep func(T) bool) (int, error) {
	if c.closed.Load() {
		return 0, c.closedErr("SweepFree")
	}
	taken, err := c.drainAvailable()
	defer c.releaseAll(taken)

	removed := 0
	for _, el := range taken {
		if !keep(el.value) {
			el.MarkDestroyed()
			removed++
		}
	}
	return removed, err
}

// ProcessFreeElements runs action on every available value. The elements
// are taken for the duration of the call and released afterwards, also when
// action panics.
func (c *core[T]) ProcessFreeElements(action func(T)) error {
	if c.closed.Load() {
		return c.closedErr("ProcessFreeElements")
	}
	taken, err := c.drainAvailable()
	defer c.releaseAll(taken)

	for _, el := range taken {
		action(el.value)
	}
	return err
}

// ProcessAllElements runs action on every stored value, busy ones included.
// It works on a snapshot and neither takes nor locks the elements.
func (c *core[T]) ProcessAllElements(action func(T)) {
	slots, top := c.store.snapshot()
	for i := 0; i < top; i++ {
		if el := slots[i].Load(); el != nil && !el.IsRemoved() {
			action(el.value)
		}
	}
}

// drainAvailable takes every element that is available right now. Destroyed
// elements met on the way are removed.
func (c *core[T]) drainAvailable() ([]*Element[T], error) {
	var taken []*Element[T]
	limit := c.store.count()
	for len(taken) < limit && c.occupied.TryAcquire() {
		el := c.sel.claim(claimAny)
		if el == nil {
			err := pferrors.NewInvariantError(c.module, "no element to claim despite a held permit")
			c.log.Error().Err(err).Int("taken", len(taken)).Msg("drain stopped")
			return taken, err
		}
		if el.IsDestroyed() {
			c.remove(el)
			continue
		}
		taken = append(taken, el)
	}
	return taken, nil
}

func (c *core[T]) releaseAll(taken []*Element[T]) {
	for _, el := range taken {
		if err := c.Release(el); err != nil {
			c.log.Warn().Err(err).Msg("re-release failed")
		}
	}
}

// remove moves el to Removed and clears its slot. Only the first call for an
// element does anything; it reports whether this call did.
func (c *core[T]) remove(el *Element[T]) bool {
	if !el.markRemoved() {
		return false
	}
	slot := el.Index()
	c.store.remove(el)
	c.removals.Add(1)
	c.log.Debug().Int("slot", slot).Bool("destroyed", el.IsDestroyed()).Msg("element removed")
	if c.onRemoved != nil {
		c.onRemoved(el.value)
	}
	return true
}

func (c *core[T]) drain() {
	taken, err := c.drainAvailable()
	if err != nil {
		c.log.Warn().Err(err).Msg("drain incomplete")
	}
	for _, el := range taken {
		c.remove(el)
	}
}

// Close disposes the container. Available elements are removed now, busy
// ones when they are released. Blocked takers return errors.ErrClosed.
// Close is idempotent.
func (c *core[T]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.markClose()
	c.drain()
	c.log.Debug().Int("busy", c.store.count()).Msg("container closed")
	return nil
}

// IsClosed reports whether Close was called.
func (c *core[T]) IsClosed() bool { return c.closed.Load() }

// Count returns the number of stored elements, busy and available.
func (c *core[T]) Count() int { return c.store.count() }

// AvailableCount returns the number of elements ready to be taken.
func (c *core[T]) AvailableCount() int { return c.occupied.Count() }

// BusyCount returns the number of elements handed out. It is exact only
// while no call is in flight.
func (c *core[T]) BusyCount() int {
	busy := c.store.count() - c.occupied.Count()
	if busy < 0 {
		return 0
	}
	return busy
}

// Stats returns counters for monitoring.
func (c *core[T]) Stats() Stats {
	return Stats{
		Count:     c.Count(),
		Available: c.AvailableCount(),
		Busy:      c.BusyCount(),
		Takes:     c.takes.Load(),
		Removals:  c.removals.Load(),
	}
}

func (c *core[T]) closedErr(op string) error {
	return pferrors.NewOperationError(c.module, op, pferrors.ErrClosed).WithContext(c.name)
}
