package threadpool

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/zeebo/errs/v2"

	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/workqueue"
)

type workerKey struct{}

// WorkerID returns the id of the worker running the task that owns ctx.
func WorkerID(ctx context.Context) (int, bool) {
	w, ok := ctx.Value(workerKey{}).(*worker)
	if !ok {
		return 0, false
	}
	return w.id, true
}

// worker represents a single worker in the pool.
//
// The local queue is single-owner. owner is a token held by whoever acts as
// owner: the worker while it takes from its queue, or a task running on the
// worker while it pushes a follow-up task.
type worker struct {
	id        int
	pool      *threadPool
	local     *workqueue.LocalQueue[*queuedTask]
	owner     atomic.Bool
	executing atomic.Bool
}

func (w *worker) lock() {
	for !w.owner.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

func (w *worker) unlock() { w.owner.Store(false) }

// pushLocal queues qt on w's local queue if w is executing a task and no
// other goroutine is pushing.
func (w *worker) pushLocal(qt *queuedTask) bool {
	if !w.owner.CompareAndSwap(false, true) {
		return false
	}
	defer w.unlock()
	return w.executing.Load() && w.local.TryAdd(qt)
}

func (w *worker) takeLocal() (*queuedTask, bool) {
	w.lock()
	defer w.unlock()
	return w.local.TryTake()
}

// run is the main loop for a worker. It returns once the queue is closed and
// empty.
func (w *worker) run() error {
	p := w.pool
	if p.config.OnWorkerStart != nil {
		p.config.OnWorkerStart(w.id)
	}
	p.log.Debug().Int("worker", w.id).Msg("worker started")
	defer func() {
		w.lock()
		p.queue.RemoveLocalQueue(w.local)
		w.unlock()
		if p.config.OnWorkerStop != nil {
			p.config.OnWorkerStop(w.id)
		}
		p.log.Debug().Int("worker", w.id).Msg("worker stopped")
	}()

	for {
		qt, ok := w.takeLocal()
		if !ok {
			var err error
			qt, err = p.queue.Take(context.Background(), nil, true)
			if pferrors.IsClosed(err) {
				return nil
			}
			if err != nil {
				return err
			}
		}
		w.executeTask(qt)
	}
}

// executeTask executes a single task with its submit context.
func (w *worker) executeTask(qt *queuedTask) {
	p := w.pool
	start := time.Now()
	task := unwrapTask(qt.task)
	result := Result{
		Task:     task,
		Wait:     start.Sub(qt.submitted),
		WorkerID: w.id,
	}

	p.active.Add(1)
	w.executing.Store(true)
	defer func() {
		w.lock()
		w.executing.Store(false)
		w.unlock()
		p.active.Add(-1)

		result.Duration = time.Since(start)
		p.totalCompleted.Add(1)
		if p.config.OnTaskComplete != nil {
			p.config.OnTaskComplete(w.id, result)
		}
		p.sendResult(result)
	}()

	ctx, cancel := context.WithCancel(qt.ctx)
	defer cancel()
	stop := context.AfterFunc(p.aborting, cancel)
	defer stop()

	// Apply TaskTimeout if configured
	// The effective timeout is the minimum of the context deadline and TaskTimeout
	if p.config.TaskTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, p.config.TaskTimeout)
		defer cancelTimeout()
	}
	ctx = context.WithValue(ctx, workerKey{}, w)

	// Canceled before it ran: skip. AfterFunc cancels asynchronously, so
	// an abort is checked directly.
	err := ctx.Err()
	if err == nil && p.aborting.Err() != nil {
		err = context.Canceled
	}
	if err != nil {
		result.Error = err
		return
	}

	if p.config.OnTaskStart != nil {
		p.config.OnTaskStart(w.id, task)
	}
	result.Error = w.call(ctx, qt.task)
}

// unwrapTask strips decorators added by this package.
func unwrapTask(t Task) Task {
	for {
		u, ok := t.(interface{ unwrap() Task })
		if !ok {
			return t
		}
		t = u.unwrap()
	}
}

// call runs task, turning a panic into an error.
func (w *worker) call(ctx context.Context, task Task) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		err = errs.Errorf("task panicked: %v", r)
		if h := w.pool.config.PanicHandler; h != nil {
			h(unwrapTask(task), r)
			return
		}
		w.pool.log.Error().
			Int("worker", w.id).
			Interface("panic", r).
			Bytes("stack", debug.Stack()).
			Msg("task panicked")
	}()
	return task.Execute(ctx)
}
