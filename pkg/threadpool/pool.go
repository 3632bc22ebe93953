package threadpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	pfctx "github.com/vnykmshr/poolflow/pkg/common/context"
	pferrors "github.com/vnykmshr/poolflow/pkg/common/errors"
	"github.com/vnykmshr/poolflow/pkg/common/logging"
	"github.com/vnykmshr/poolflow/pkg/workqueue"
)

// queuedTask is a submitted task waiting for a worker.
type queuedTask struct {
	task      Task
	ctx       context.Context
	submitted time.Time
}

// threadPool implements the Pool interface.
type threadPool struct {
	config Config
	queue  *workqueue.Controller[*queuedTask]

	workers []*worker
	group   errgroup.Group
	results chan Result

	shutdown     atomic.Bool
	shutdownOnce sync.Once
	done         chan struct{}

	// aborting is canceled when ShutdownWithTimeout runs out of time.
	aborting context.Context
	abort    context.CancelFunc

	active         atomic.Int32
	totalSubmitted atomic.Int64
	totalCompleted atomic.Int64
	dropped        atomic.Int64

	log zerolog.Logger
}

// New creates a thread pool with the given number of workers and global
// queue capacity. It panics on invalid arguments.
func New(workerCount, queueCapacity int) Pool {
	p, err := NewWithConfig(Config{
		WorkerCount:   workerCount,
		QueueCapacity: queueCapacity,
	})
	if err != nil {
		panic(err)
	}
	return p
}

// NewWithConfig creates a thread pool and starts its workers.
func NewWithConfig(config Config) (Pool, error) {
	p, err := newThreadPool(config)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func newThreadPool(config Config) (*threadPool, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.WorkerCount == 0 {
		config.WorkerCount = runtime.GOMAXPROCS(0)
	}

	queue, err := workqueue.NewWithConfig[*queuedTask](config.queueConfig())
	if err != nil {
		return nil, err
	}

	p := &threadPool{
		config:  config,
		queue:   queue,
		results: make(chan Result, config.ResultBuffer),
		done:    make(chan struct{}),
		log:     logging.Component(logging.OrNop(config.Logger), "threadpool", config.Name),
	}
	p.aborting, p.abort = context.WithCancel(context.Background())

	// Local queues are registered before any worker runs, so early submits
	// can be stolen by every worker.
	p.workers = make([]*worker, config.WorkerCount)
	for i := range p.workers {
		p.workers[i] = &worker{id: i, pool: p, local: queue.NewLocalQueue()}
	}
	for _, w := range p.workers {
		p.group.Go(w.run)
	}
	return p, nil
}

// Submit adds a task to the pool for execution.
// The task will be executed with context.Background().
func (p *threadPool) Submit(task Task) error {
	return p.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout waits at most timeout for queue room.
func (p *threadPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	ok, err := p.submit(context.Background(), task, timeout)
	if err != nil {
		return err
	}
	if !ok {
		return pferrors.NewOperationError("threadpool", "Submit", pferrors.ErrTimeout).WithContext(p.config.Name)
	}
	return nil
}

// SubmitWithContext adds a task to the pool for execution with the given context.
// The context bounds the wait for queue room and is passed to the task's
// Execute method. If the pool has a TaskTimeout configured, the effective
// timeout is the minimum of the context deadline and TaskTimeout.
func (p *threadPool) SubmitWithContext(ctx context.Context, task Task) error {
	ok, err := p.submit(ctx, task, pfctx.Infinite)
	if err != nil {
		return err
	}
	if !ok {
		return pferrors.NewInvariantError("threadpool", "infinite submit returned without queuing")
	}
	return nil
}

// TrySubmit queues task only if that needs no waiting.
func (p *threadPool) TrySubmit(task Task) bool {
	ok, err := p.submit(context.Background(), task, 0)
	return err == nil && ok
}

func (p *threadPool) submit(ctx context.Context, task Task, timeout time.Duration) (bool, error) {
	if task == nil {
		return false, pferrors.NewValidationError("threadpool", "task", nil, "cannot be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if p.shutdown.Load() {
		return false, pferrors.NewOperationError("threadpool", "Submit", pferrors.ErrClosed).WithContext(p.config.Name)
	}
	if ctx.Err() != nil {
		return false, pferrors.NewCancelError("threadpool.Submit", ctx)
	}

	qt := &queuedTask{task: task, ctx: ctx, submitted: time.Now()}

	var ok bool
	var err error
	if w := p.currentWorker(ctx); w != nil {
		// A follow-up task must not outlive its parent's cancellation only
		// to be skipped, and must never block the worker that submits it.
		qt.ctx = context.WithoutCancel(ctx)
		ok, err = p.enqueueNested(w, qt)
	} else {
		ok, err = p.queue.TryAdd(ctx, qt, nil, true, timeout)
	}
	if err != nil {
		if pferrors.IsClosed(err) {
			return false, pferrors.NewOperationError("threadpool", "Submit", pferrors.ErrClosed).WithContext(p.config.Name)
		}
		return false, err
	}
	if ok {
		p.totalSubmitted.Add(1)
	}
	return ok, nil
}

// enqueueNested queues a task submitted by a task running on w: w's local
// queue first, then the global queue, extending its capacity when full.
func (p *threadPool) enqueueNested(w *worker, qt *queuedTask) (bool, error) {
	if w.pushLocal(qt) {
		return true, nil
	}
	ok, err := p.queue.TryAdd(context.Background(), qt, nil, true, 0)
	if err != nil || ok {
		return ok, err
	}
	if err := p.queue.ForceAdd(qt); err != nil {
		return false, err
	}
	return true, nil
}

// currentWorker returns the worker of this pool running the task that owns
// ctx, or nil.
func (p *threadPool) currentWorker(ctx context.Context) *worker {
	w, _ := ctx.Value(workerKey{}).(*worker)
	if w == nil || w.pool != p {
		return nil
	}
	return w
}

// Results returns a channel of task results.
func (p *threadPool) Results() <-chan Result {
	return p.results
}

// Shutdown initiates a graceful shutdown of the pool.
func (p *threadPool) Shutdown() <-chan struct{} {
	p.shutdownOnce.Do(func() {
		p.shutdown.Store(true)
		p.queue.Close()
		p.log.Debug().Int("queued", p.queue.Count()).Msg("shutting down")

		go func() {
			if err := p.group.Wait(); err != nil {
				p.log.Error().Err(err).Msg("worker failed")
			}
			p.abort()
			close(p.results)
			if n := p.dropped.Load(); n > 0 {
				p.log.Debug().Int64("dropped_results", n).Msg("results dropped")
			}
			close(p.done)
		}()
	})
	return p.done
}

// ShutdownWithTimeout shuts down the pool with a timeout.
func (p *threadPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	done := p.Shutdown()
	timer := time.NewTimer(timeout)
	go func() {
		defer timer.Stop()
		select {
		case <-done:
		case <-timer.C:
			p.log.Warn().Dur("timeout", timeout).Msg("shutdown timed out, canceling tasks")
			p.abort()
		}
	}()
	return done
}

// Size returns the number of workers in the pool.
func (p *threadPool) Size() int {
	return len(p.workers)
}

// QueueSize returns the current number of queued tasks waiting for execution.
func (p *threadPool) QueueSize() int {
	return p.queue.Count()
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (p *threadPool) ActiveWorkers() int {
	return int(p.active.Load())
}

// TotalSubmitted returns the total number of tasks submitted.
func (p *threadPool) TotalSubmitted() int64 {
	return p.totalSubmitted.Load()
}

// TotalCompleted returns the total number of tasks completed.
func (p *threadPool) TotalCompleted() int64 {
	return p.totalCompleted.Load()
}

func (p *threadPool) sendResult(result Result) {
	select {
	case p.results <- result:
	default:
		p.dropped.Add(1)
	}
}
