package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/zeebo/errs/v2"

	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/logging"
	"github.com/vnykmshr/poolflow/pkg/container"
)

const dynamicModule = "pool.dynamic"

// dynamicInitialSlots caps the first slot allocation; the container grows
// toward MaxElements as values are created.
const dynamicInitialSlots = 64

// DynamicPool creates values on demand up to MaxElements and destroys them
// when they become invalid, are trimmed or the pool is closed.
type DynamicPool[T any] struct {
	c       container.Container[T]
	ops     ElementOperations[T]
	name    string
	min     int
	max     int
	recheck time.Duration

	// size counts values that exist or are being created.
	size         atomic.Int64
	created      atomic.Int64
	destroyed    atomic.Int64
	createErrors atomic.Int64
	log          zerolog.Logger
}

// NewDynamic creates an empty dynamic pool. Call EnsureMinimum to pre-create
// MinElements values.
func NewDynamic[T any](config DynamicConfig[T]) (*DynamicPool[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.CapacityRecheckPeriod == 0 {
		config.CapacityRecheckPeriod = DefaultCapacityRecheckPeriod
	}

	p := &DynamicPool[T]{
		ops:     config.Operations,
		name:    config.Name,
		min:     config.MinElements,
		max:     config.MaxElements,
		recheck: config.CapacityRecheckPeriod,
		log:     logging.Component(logging.OrNop(config.Logger), dynamicModule, config.Name),
	}
	c, err := container.New(container.Config[T]{
		Name:         config.Name,
		InitialSlots: min(config.MaxElements, dynamicInitialSlots),
		Comparer:     config.Comparer,
		OnRemoved:    p.destroy,
		Logger:       config.Logger,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

// Name returns the pool name.
func (p *DynamicPool[T]) Name() string { return p.name }

// Container exposes the backing container.
func (p *DynamicPool[T]) Container() container.Container[T] { return p.c }

// MaxElements returns the configured upper bound.
func (p *DynamicPool[T]) MaxElements() int { return p.max }

// MinElements returns the configured lower bound.
func (p *DynamicPool[T]) MinElements() int { return p.min }

// Rent blocks until a value is available or could be created.
func (p *DynamicPool[T]) Rent(ctx context.Context) (*Rented[T], error) {
	return mustRent[T](ctx, p, dynamicModule)
}

// TryRent rents an idle valid value, creates one when none is idle and the
// pool is below MaxElements, and otherwise waits for a release within
// timeout. Invalid idle values met on the way are destroyed.
func (p *DynamicPool[T]) TryRent(ctx context.Context, timeout time.Duration) (*Rented[T], bool, error) {
	budget := pfctx.StartBudget(timeout)
	for {
		el, ok, err := p.c.TryTake(ctx, 0)
		if err != nil {
			return nil, false, err
		}
		if ok {
			if r := p.validated(el); r != nil {
				return r, true, nil
			}
			continue
		}

		if p.reserve() {
			r, err := p.create(ctx)
			if err != nil {
				return nil, false, err
			}
			return r, true, nil
		}

		if budget.Expired() {
			return nil, false, nil
		}
		// Wait for a release, but come back periodically in case a
		// destroyed value freed capacity.
		el, ok, err = p.c.TryTake(ctx, budget.Min(p.recheck))
		if err != nil {
			return nil, false, err
		}
		if ok {
			if r := p.validated(el); r != nil {
				return r, true, nil
			}
		}
	}
}

// validated hands el out, or destroys it and returns nil when it is invalid.
func (p *DynamicPool[T]) validated(el *container.Element[T]) *Rented[T] {
	if p.ops.IsValid(el.Value()) {
		return newRented[T](el, p)
	}
	el.MarkDestroyed()
	if err := p.c.Release(el); err != nil {
		p.log.Warn().Err(err).Msg("dropping invalid value")
	}
	return nil
}

// reserve claims room for one more value.
func (p *DynamicPool[T]) reserve() bool {
	for {
		n := p.size.Load()
		if n >= int64(p.max) {
			return false
		}
		if p.size.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

// create makes a value in a reserved slot and hands it out Busy.
func (p *DynamicPool[T]) create(ctx context.Context) (*Rented[T], error) {
	el, err := p.add(ctx, false)
	if err != nil {
		return nil, err
	}
	return newRented[T](el, p), nil
}

func (p *DynamicPool[T]) add(ctx context.Context, makeAvailable bool) (*container.Element[T], error) {
	v, err := p.ops.Create(ctx)
	if err != nil {
		p.size.Add(-1)
		p.createErrors.Add(1)
		p.log.Error().Err(err).Msg("create failed")
		return nil, pferrors.NewOperationError(dynamicModule, "Create", errs.Wrap(err)).WithContext(p.name)
	}
	p.created.Add(1)

	el, err := p.c.Add(v, makeAvailable)
	if err != nil {
		// The container never stored v, so OnRemoved will not run for it.
		p.size.Add(-1)
		p.destroyed.Add(1)
		p.ops.Destroy(v)
		return nil, err
	}
	p.log.Debug().Int64("size", p.size.Load()).Msg("value created")
	return el, nil
}

func (p *DynamicPool[T]) destroy(v T) {
	p.size.Add(-1)
	p.destroyed.Add(1)
	p.ops.Destroy(v)
}

func (p *DynamicPool[T]) release(el *container.Element[T]) error {
	if !el.IsDestroyed() && !p.ops.IsValid(el.Value()) {
		el.MarkDestroyed()
	}
	return p.c.Release(el)
}

// EnsureMinimum creates idle values until the pool holds MinElements.
func (p *DynamicPool[T]) EnsureMinimum(ctx context.Context) error {
	for p.size.Load() < int64(p.min) {
		if !p.reserve() {
			return nil
		}
		if _, err := p.add(ctx, true); err != nil {
			return err
		}
	}
	return nil
}

// TrimIdle destroys idle values until at most max(keep, MinElements) values
// remain. Invalid idle values are destroyed as well. It returns the number of
// destroyed values.
func (p *DynamicPool[T]) TrimIdle(keep int) (int, error) {
	floor := max(keep, p.min)
	excess := p.c.Count() - floor
	return p.c.SweepFree(func(v T) bool {
		if !p.ops.IsValid(v) {
			excess--
			return false
		}
		if excess > 0 {
			excess--
			return false
		}
		return true
	})
}

// Count returns the number of values owned by the pool.
func (p *DynamicPool[T]) Count() int { return p.c.Count() }

// AvailableCount returns the number of idle values.
func (p *DynamicPool[T]) AvailableCount() int { return p.c.AvailableCount() }

// RescanContainer destroys idle values that are no longer valid.
func (p *DynamicPool[T]) RescanContainer() error {
	removed, err := p.c.SweepFree(p.ops.IsValid)
	if removed > 0 {
		p.log.Debug().Int("removed", removed).Msg("rescan")
	}
	return err
}

// Stats returns pool counters.
func (p *DynamicPool[T]) Stats() Stats {
	return Stats{
		Elements:     p.c.Count(),
		Available:    p.c.AvailableCount(),
		Created:      p.created.Load(),
		Destroyed:    p.destroyed.Load(),
		CreateErrors: p.createErrors.Load(),
	}
}

// Close destroys idle values now and rented ones on release.
func (p *DynamicPool[T]) Close() error {
	p.log.Debug().Int("rented", p.c.BusyCount()).Msg("closing")
	return p.c.Close()
}
