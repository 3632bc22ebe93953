package threadpool

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vnykmshr/poolflow/pkg/common/validation"
	"github.com/vnykmshr/poolflow/pkg/workqueue"
)

// Task represents a unit of work that can be executed by a worker.
type Task interface {
	// Execute runs the task with the given context.
	// It should respect context cancellation and return any error encountered.
	Execute(ctx context.Context) error
}

// TaskFunc is a function type that implements the Task interface.
type TaskFunc func(ctx context.Context) error

// Execute implements the Task interface for TaskFunc.
func (f TaskFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

// Result represents the result of a task execution.
type Result struct {
	// Task is the original task that was executed
	Task Task

	// Error is any error that occurred during task execution, including a
	// recovered panic or the context error of a task that was skipped
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// Wait is how long the task sat in the queue
	Wait time.Duration

	// WorkerID identifies which worker executed the task
	WorkerID int
}

// Pool represents a work-stealing thread pool.
type Pool interface {
	// Submit queues a task, blocking while the queue is full.
	Submit(task Task) error

	// SubmitWithTimeout queues a task, waiting at most timeout for room.
	SubmitWithTimeout(task Task, timeout time.Duration) error

	// SubmitWithContext queues a task. ctx bounds the wait for room and is
	// passed to Execute. A submit from inside a running task never blocks.
	SubmitWithContext(ctx context.Context, task Task) error

	// TrySubmit queues a task if there is room right now.
	TrySubmit(task Task) bool

	// Results returns a channel of task results. It holds at most
	// Config.ResultBuffer results; results that do not fit are dropped.
	// The channel is closed when shutdown completes.
	Results() <-chan Result

	// Shutdown stops accepting tasks, runs every queued task and returns a
	// channel that closes once all workers have exited.
	Shutdown() <-chan struct{}

	// ShutdownWithTimeout is Shutdown, but cancels running tasks and skips
	// queued ones once timeout has passed.
	ShutdownWithTimeout(timeout time.Duration) <-chan struct{}

	// Size returns the number of workers in the pool.
	Size() int

	// QueueSize returns the number of queued tasks, local and global.
	QueueSize() int

	// ActiveWorkers returns the number of workers currently executing tasks.
	ActiveWorkers() int

	// TotalSubmitted returns the total number of tasks submitted to the pool.
	TotalSubmitted() int64

	// TotalCompleted returns the total number of tasks the pool finished,
	// failed and skipped ones included.
	TotalCompleted() int64
}

// Config holds configuration options for creating a thread pool.
type Config struct {
	// Name identifies the pool in logs and metrics.
	Name string

	// WorkerCount is the number of workers. Zero selects GOMAXPROCS.
	WorkerCount int

	// QueueCapacity bounds the global queue. Zero means unbounded.
	QueueCapacity int

	// LocalQueueCapacity is the capacity of each worker's local queue, a
	// power of two. Zero selects workqueue.DefaultLocalCapacity.
	LocalQueueCapacity int

	// StealAwakePeriod is how often an idle worker wakes to steal. Zero
	// selects workqueue.DefaultStealAwakePeriod.
	StealAwakePeriod time.Duration

	// TaskTimeout is the default timeout for individual task execution.
	// Zero or -1 (infinite) means no timeout.
	TaskTimeout time.Duration

	// ResultBuffer is the capacity of the Results channel.
	ResultBuffer int

	// PanicHandler is called when a task panics.
	// If nil, panics are recovered and logged as errors.
	PanicHandler func(task Task, recovered interface{})

	// OnWorkerStart is called when a worker starts.
	OnWorkerStart func(workerID int)

	// OnWorkerStop is called when a worker stops.
	OnWorkerStop func(workerID int)

	// OnTaskStart is called before a task begins execution.
	OnTaskStart func(workerID int, task Task)

	// OnTaskComplete is called after a task completes (success or failure).
	OnTaskComplete func(workerID int, result Result)

	// Logger receives worker lifecycle and panic events. Nil disables
	// logging.
	Logger *zerolog.Logger
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := validation.ValidateNonNegative("threadpool", "WorkerCount", c.WorkerCount); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative("threadpool", "QueueCapacity", c.QueueCapacity); err != nil {
		return err
	}
	if c.LocalQueueCapacity != 0 {
		if err := validation.ValidatePowerOfTwo("threadpool", "LocalQueueCapacity", c.LocalQueueCapacity); err != nil {
			return err
		}
	}
	if err := validation.ValidateNonNegative("threadpool", "ResultBuffer", c.ResultBuffer); err != nil {
		return err
	}
	if c.StealAwakePeriod < 0 {
		return validation.ValidateNonNegative("threadpool", "StealAwakePeriod", -1)
	}
	return validation.ValidateTimeout("threadpool", "TaskTimeout", c.TaskTimeout)
}

func (c Config) queueConfig() workqueue.Config {
	qc := workqueue.DefaultConfig()
	qc.Name = c.Name
	qc.GlobalCapacity = c.QueueCapacity
	qc.Logger = c.Logger
	if c.LocalQueueCapacity != 0 {
		qc.LocalCapacity = c.LocalQueueCapacity
	}
	if c.StealAwakePeriod != 0 {
		qc.StealAwakePeriod = c.StealAwakePeriod
	}
	return qc
}
