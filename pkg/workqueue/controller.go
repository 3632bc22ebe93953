package workqueue

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/logging"
)

// Controller distributes items across per-worker local queues and a shared
// global queue.
//
// Adds prefer the caller's local queue and overflow to the global queue.
// Takes try the caller's local queue, then the global queue, then steal from
// other local queues starting at a rotating index. A blocking take parks on
// the global queue and wakes every StealAwakePeriod to steal again, since
// items pushed to local queues do not signal anyone.
type Controller[T any] struct {
	global      *GlobalQueue[T]
	mu          sync.Mutex
	locals      atomic.Pointer[[]*LocalQueue[T]]
	stealCursor atomic.Uint32
	steals      atomic.Uint64

	localCapacity    int
	stealAwakePeriod time.Duration

	closed    atomic.Bool
	closing   context.Context
	markClose context.CancelFunc
	log       zerolog.Logger
}

// New creates a Controller with the default configuration.
func New[T any]() *Controller[T] {
	c, err := NewWithConfig[T](DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}

// NewWithConfig creates a Controller.
func NewWithConfig[T any](config Config) (*Controller[T], error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Controller[T]{
		global:           NewGlobalQueue[T](config.GlobalCapacity, config.SegmentSize),
		localCapacity:    config.LocalCapacity,
		stealAwakePeriod: config.StealAwakePeriod,
		log:              logging.Component(logging.OrNop(config.Logger), "workqueue", config.Name),
	}
	c.locals.Store(&[]*LocalQueue[T]{})
	c.closing, c.markClose = context.WithCancel(context.Background())
	return c, nil
}

// NewLocalQueue registers a local queue for the calling worker.
func (c *Controller[T]) NewLocalQueue() *LocalQueue[T] {
	q := newLocalQueue[T](c.localCapacity, c)

	c.mu.Lock()
	defer c.mu.Unlock()
	next := append(slices.Clone(*c.locals.Load()), q)
	c.locals.Store(&next)
	return q
}

// RemoveLocalQueue unregisters q and moves its leftover items to the global
// queue. It must be called by q's owner, after which q must not be used.
func (c *Controller[T]) RemoveLocalQueue(q *LocalQueue[T]) {
	if q == nil || q.controller != c || !q.detached.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	next := slices.DeleteFunc(slices.Clone(*c.locals.Load()), func(l *LocalQueue[T]) bool { return l == q })
	c.locals.Store(&next)
	c.mu.Unlock()

	moved := 0
	for {
		item, ok := q.TryTake()
		if !ok {
			break
		}
		c.global.ForceAdd(item)
		moved++
	}
	if moved > 0 {
		c.log.Debug().Int("moved", moved).Msg("local queue removed")
	}
}

func (c *Controller[T]) owns(q *LocalQueue[T]) bool {
	return q != nil && q.controller == c && !q.detached.Load()
}

// TryAdd enqueues item. Unless forceGlobal is set, the item goes to local
// first when local belongs to this controller and has room. Otherwise it
// waits for global capacity following the wait-timeout convention; a full
// global queue after the timeout yields (false, nil).
func (c *Controller[T]) TryAdd(ctx context.Context, item T, local *LocalQueue[T], forceGlobal bool, timeout time.Duration) (bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return false, pferrors.NewCancelError("workqueue.Add", ctx)
	}
	if c.closed.Load() {
		return false, pferrors.NewOperationError("workqueue", "Add", pferrors.ErrClosed)
	}

	if !forceGlobal && c.owns(local) && local.TryAdd(item) {
		return true, nil
	}

	wctx, done := c.waitContext(ctx, timeout)
	defer done()
	ok, err := c.global.TryAdd(wctx, item, timeout)
	if err != nil {
		return false, c.waitErr(ctx, "Add", err)
	}
	return ok, nil
}

// Add is TryAdd with an infinite timeout.
func (c *Controller[T]) Add(ctx context.Context, item T, local *LocalQueue[T], forceGlobal bool) error {
	ok, err := c.TryAdd(ctx, item, local, forceGlobal, pfctx.Infinite)
	if err != nil {
		return err
	}
	if !ok {
		return pferrors.NewInvariantError("workqueue", "infinite add returned without enqueuing")
	}
	return nil
}

// ForceAdd enqueues item on the global queue past its bound.
func (c *Controller[T]) ForceAdd(item T) error {
	if c.closed.Load() {
		return pferrors.NewOperationError("workqueue", "ForceAdd", pferrors.ErrClosed)
	}
	c.global.ForceAdd(item)
	return nil
}

// TryTake dequeues an item: local first, then global, then by stealing when
// doSteal is set. It follows the wait-timeout convention. After Close it
// keeps returning queued items and reports errors.ErrClosed once none are
// left.
func (c *Controller[T]) TryTake(ctx context.Context, local *LocalQueue[T], doSteal bool, timeout time.Duration) (T, bool, error) {
	var zero T
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return zero, false, pferrors.NewCancelError("workqueue.Take", ctx)
	}

	if c.owns(local) {
		if item, ok := local.TryTake(); ok {
			return item, true, nil
		}
	}

	wctx, done := c.waitContext(ctx, timeout)
	defer done()

	budget := pfctx.StartBudget(timeout)
	for {
		item, ok, err := c.global.TryTake(ctx, 0)
		if err != nil {
			return zero, false, c.waitErr(ctx, "Take", err)
		}
		if ok {
			return item, true, nil
		}
		if doSteal {
			if item, ok := c.TrySteal(local); ok {
				return item, true, nil
			}
		}

		if c.closed.Load() {
			return zero, false, pferrors.NewOperationError("workqueue", "Take", pferrors.ErrClosed)
		}
		if budget.Expired() {
			return zero, false, nil
		}

		wait := budget.Remaining()
		if doSteal {
			wait = budget.Min(c.stealAwakePeriod)
		}
		item, ok, err = c.global.TryTake(wctx, wait)
		if err != nil {
			return zero, false, c.waitErr(ctx, "Take", err)
		}
		if ok {
			return item, true, nil
		}
	}
}

// Take is TryTake with an infinite timeout.
func (c *Controller[T]) Take(ctx context.Context, local *LocalQueue[T], doSteal bool) (T, error) {
	item, ok, err := c.TryTake(ctx, local, doSteal, pfctx.Infinite)
	if err != nil {
		return item, err
	}
	if !ok {
		return item, pferrors.NewInvariantError("workqueue", "infinite take returned without an item")
	}
	return item, nil
}

// TrySteal takes the oldest item of another local queue. The scan starts at
// a rotating index and skips local.
func (c *Controller[T]) TrySteal(local *LocalQueue[T]) (T, bool) {
	var zero T
	queues := *c.locals.Load()
	n := len(queues)
	if n == 0 {
		return zero, false
	}

	start := int(c.stealCursor.Add(1) % uint32(n))
	for i := 0; i < n; i++ {
		q := queues[(start+i)%n]
		if q == local {
			continue
		}
		if item, ok := q.TrySteal(); ok {
			c.steals.Add(1)
			return item, true
		}
	}
	return zero, false
}

// waitContext derives the context used for blocking waits so that Close
// wakes them. Polls use ctx unchanged.
func (c *Controller[T]) waitContext(ctx context.Context, timeout time.Duration) (context.Context, func()) {
	if timeout == 0 {
		return ctx, func() {}
	}
	wctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.closing, cancel)
	return wctx, func() {
		stop()
		cancel()
	}
}

func (c *Controller[T]) waitErr(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return pferrors.NewCancelError("workqueue."+op, ctx)
	}
	if c.closed.Load() {
		return pferrors.NewOperationError("workqueue", op, pferrors.ErrClosed)
	}
	return err
}

// ExtendGlobalQueueCapacity lets n more items into the global queue beyond
// its bound until they are taken.
func (c *Controller[T]) ExtendGlobalQueueCapacity(n int) {
	c.global.ExtendCapacity(n)
}

// GlobalQueueCount returns the number of items in the global queue.
func (c *Controller[T]) GlobalQueueCount() int { return c.global.Count() }

// BoundedCapacity returns the global queue bound, 0 when unbounded.
func (c *Controller[T]) BoundedCapacity() int { return c.global.BoundedCapacity() }

// ExtendedCapacity returns the outstanding capacity IOUs.
func (c *Controller[T]) ExtendedCapacity() int { return c.global.ExtendedCapacity() }

// TotalExtensions returns the number of capacity IOUs ever issued.
func (c *Controller[T]) TotalExtensions() int64 { return c.global.TotalExtensions() }

// LocalQueueCount returns the number of registered local queues.
func (c *Controller[T]) LocalQueueCount() int { return len(*c.locals.Load()) }

// LocalItemCount returns the number of items across all local queues.
func (c *Controller[T]) LocalItemCount() int {
	n := 0
	for _, q := range *c.locals.Load() {
		n += q.Count()
	}
	return n
}

// Count returns the number of queued items, local and global.
func (c *Controller[T]) Count() int { return c.GlobalQueueCount() + c.LocalItemCount() }

// Steals returns the number of successful steals.
func (c *Controller[T]) Steals() uint64 { return c.steals.Load() }

// Close rejects further adds and wakes blocked takers. Queued items can
// still be taken. Close is idempotent.
func (c *Controller[T]) Close() {
	if c.closed.CompareAndSwap(false, true) {
		c.markClose()
		c.log.Debug().Int("queued", c.Count()).Msg("work queue closed")
	}
}

// IsClosed reports whether Close was called.
func (c *Controller[T]) IsClosed() bool { return c.closed.Load() }
