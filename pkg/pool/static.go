package pool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/logging"
	"github.com/vnykmshr/poolflow/pkg/container"
)

// StaticPool rents out a fixed set of values that the caller adds and
// removes explicitly. It never creates values on its own.
type StaticPool[T any] struct {
	c       container.Container[T]
	name    string
	added   atomic.Int64
	removed atomic.Int64
	log     zerolog.Logger
}

// NewStatic creates an empty static pool.
func NewStatic[T any](config StaticConfig[T]) (*StaticPool[T], error) {
	p := &StaticPool[T]{
		name: config.Name,
		log:  logging.Component(logging.OrNop(config.Logger), "pool.static", config.Name),
	}
	c, err := container.New(container.Config[T]{
		Name:     config.Name,
		Comparer: config.Comparer,
		OnRemoved: func(v T) {
			p.removed.Add(1)
			if config.OnRemoved != nil {
				config.OnRemoved(v)
			}
		},
		Logger: config.Logger,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

// Name returns the pool name.
func (p *StaticPool[T]) Name() string { return p.name }

// Container exposes the backing container.
func (p *StaticPool[T]) Container() container.Container[T] { return p.c }

// AddElement adds value as an available element and returns its handle for
// RemoveElement.
func (p *StaticPool[T]) AddElement(value T) (*container.Element[T], error) {
	el, err := p.c.Add(value, true)
	if err != nil {
		return nil, err
	}
	p.added.Add(1)
	return el, nil
}

// RemoveElement removes el from the pool. An idle element goes immediately,
// a rented one when it is released. An element of another pool is rejected
// with errors.ErrForeignElement and left untouched.
func (p *StaticPool[T]) RemoveElement(el *container.Element[T]) error {
	if !p.c.Owns(el) {
		return pferrors.NewOperationError("pool.static", "RemoveElement", pferrors.ErrForeignElement).
			WithContext(p.name)
	}
	el.MarkDestroyed()
	if el.IsBusy() {
		return nil
	}
	return p.c.RescanContainer()
}

// Rent blocks until a value is available.
func (p *StaticPool[T]) Rent(ctx context.Context) (*Rented[T], error) {
	return mustRent[T](ctx, p, "pool.static")
}

// TryRent rents a value within timeout.
func (p *StaticPool[T]) TryRent(ctx context.Context, timeout time.Duration) (*Rented[T], bool, error) {
	el, ok, err := p.c.TryTake(ctx, timeout)
	if err != nil || !ok {
		return nil, ok, err
	}
	return newRented[T](el, p), true, nil
}

func (p *StaticPool[T]) release(el *container.Element[T]) error {
	return p.c.Release(el)
}

// Count returns the number of values in the pool.
func (p *StaticPool[T]) Count() int { return p.c.Count() }

// AvailableCount returns the number of idle values.
func (p *StaticPool[T]) AvailableCount() int { return p.c.AvailableCount() }

// RescanContainer removes idle values marked destroyed.
func (p *StaticPool[T]) RescanContainer() error { return p.c.RescanContainer() }

// Stats returns pool counters.
func (p *StaticPool[T]) Stats() Stats {
	return Stats{
		Elements:  p.c.Count(),
		Available: p.c.AvailableCount(),
		Created:   p.added.Load(),
		Destroyed: p.removed.Load(),
	}
}

// Close closes the pool.
func (p *StaticPool[T]) Close() error {
	p.log.Debug().Int("rented", p.c.BusyCount()).Msg("closing")
	return p.c.Close()
}

type tryRenter[T any] interface {
	TryRent(ctx context.Context, timeout time.Duration) (*Rented[T], bool, error)
}

func mustRent[T any](ctx context.Context, p tryRenter[T], module string) (*Rented[T], error) {
	r, ok, err := p.TryRent(ctx, pfctx.Infinite)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, pferrors.NewInvariantError(module, "infinite rent returned without a value")
	}
	return r, nil
}
