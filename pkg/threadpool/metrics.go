package threadpool

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/poolflow/pkg/metrics"
)

// MetricsPool wraps a thread Pool with Prometheus metrics collection.
type MetricsPool struct {
	pool     Pool
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool
}

// NewWithMetrics creates a thread pool with metrics enabled on a
// registry of its own.
func NewWithMetrics(workerCount int, name string) (*MetricsPool, error) {
	return NewWithConfigAndMetrics(Config{
		Name:        name,
		WorkerCount: workerCount,
	}, metrics.Config{Enabled: true, Registry: prometheus.NewRegistry()})
}

// NewWithConfigAndMetrics creates a thread pool with custom config and
// metrics. The work queue of the pool is exported as well.
func NewWithConfigAndMetrics(config Config, metricsConfig metrics.Config) (*MetricsPool, error) {
	base, err := newThreadPool(config)
	if err != nil {
		return nil, err
	}

	mp := &MetricsPool{pool: base, name: config.Name}
	mp.registry.Store(metrics.ForConfig(metricsConfig))
	mp.enabled.Store(metricsConfig.Enabled)

	if metricsConfig.Enabled {
		if err := mp.registry.Load().RegisterWorkQueue(config.Name, base.queue); err != nil {
			base.log.Warn().Err(err).Msg("work queue metrics not registered")
		}
	}
	mp.updateMetrics()
	return mp, nil
}

// updateMetrics updates the current state metrics.
func (mp *MetricsPool) updateMetrics() {
	if !mp.enabled.Load() {
		return
	}
	r := mp.registry.Load()
	r.ThreadPoolSize.WithLabelValues(mp.name).Set(float64(mp.pool.Size()))
	r.ThreadPoolActive.WithLabelValues(mp.name).Set(float64(mp.pool.ActiveWorkers()))
	r.ThreadPoolQueued.WithLabelValues(mp.name).Set(float64(mp.pool.QueueSize()))
}

// Submit adds a task to the pool for execution.
func (mp *MetricsPool) Submit(task Task) error {
	return mp.SubmitWithContext(context.Background(), task)
}

// SubmitWithTimeout submits a task with a timeout for queuing.
func (mp *MetricsPool) SubmitWithTimeout(task Task, timeout time.Duration) error {
	err := mp.pool.SubmitWithTimeout(mp.wrap(task), timeout)
	mp.updateMetrics()
	return err
}

// SubmitWithContext submits a task with a context for cancellation.
func (mp *MetricsPool) SubmitWithContext(ctx context.Context, task Task) error {
	err := mp.pool.SubmitWithContext(ctx, mp.wrap(task))
	mp.updateMetrics()
	return err
}

// TrySubmit queues a task if there is room right now.
func (mp *MetricsPool) TrySubmit(task Task) bool {
	ok := mp.pool.TrySubmit(mp.wrap(task))
	mp.updateMetrics()
	return ok
}

func (mp *MetricsPool) wrap(task Task) Task {
	if task == nil {
		return nil
	}
	return &metricsTask{original: task, pool: mp, submitTime: time.Now()}
}

// metricsTask wraps a Task to collect execution metrics.
type metricsTask struct {
	original   Task
	pool       *MetricsPool
	submitTime time.Time
}

func (mt *metricsTask) unwrap() Task { return mt.original }

// Execute runs the original task and records metrics.
func (mt *metricsTask) Execute(ctx context.Context) error {
	start := time.Now()
	mp := mt.pool
	if mp.enabled.Load() {
		mp.registry.Load().TaskQueueDuration.WithLabelValues(mp.name).Observe(start.Sub(mt.submitTime).Seconds())
	}

	err := mt.original.Execute(ctx)

	if mp.enabled.Load() {
		r := mp.registry.Load()
		r.TaskExecutionDuration.WithLabelValues(mp.name).Observe(time.Since(start).Seconds())
		r.TasksExecuted.WithLabelValues(mp.name).Inc()
		if err != nil {
			r.TasksFailed.WithLabelValues(mp.name).Inc()
		} else {
			r.TasksCompleted.WithLabelValues(mp.name).Inc()
		}
		mp.updateMetrics()
	}
	return err
}

// Results returns a channel of task results. Result.Task is the task as
// submitted, not its metrics wrapper.
func (mp *MetricsPool) Results() <-chan Result {
	return mp.pool.Results()
}

// Shutdown initiates graceful shutdown of the pool.
func (mp *MetricsPool) Shutdown() <-chan struct{} {
	return mp.pool.Shutdown()
}

// ShutdownWithTimeout shuts down the pool with a timeout.
func (mp *MetricsPool) ShutdownWithTimeout(timeout time.Duration) <-chan struct{} {
	return mp.pool.ShutdownWithTimeout(timeout)
}

// Size returns the current number of workers.
func (mp *MetricsPool) Size() int {
	return mp.pool.Size()
}

// QueueSize returns the current number of queued tasks.
func (mp *MetricsPool) QueueSize() int {
	queueSize := mp.pool.QueueSize()
	if mp.enabled.Load() {
		mp.registry.Load().ThreadPoolQueued.WithLabelValues(mp.name).Set(float64(queueSize))
	}
	return queueSize
}

// ActiveWorkers returns the number of workers currently executing tasks.
func (mp *MetricsPool) ActiveWorkers() int {
	activeWorkers := mp.pool.ActiveWorkers()
	if mp.enabled.Load() {
		mp.registry.Load().ThreadPoolActive.WithLabelValues(mp.name).Set(float64(activeWorkers))
	}
	return activeWorkers
}

// TotalSubmitted returns the total number of tasks submitted.
func (mp *MetricsPool) TotalSubmitted() int64 {
	return mp.pool.TotalSubmitted()
}

// TotalCompleted returns the total number of tasks completed.
func (mp *MetricsPool) TotalCompleted() int64 {
	return mp.pool.TotalCompleted()
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPool) EnableMetrics(config metrics.Config) error {
	mp.registry.Store(metrics.ForConfig(config))
	mp.enabled.Store(config.Enabled)
	mp.updateMetrics()
	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool) DisableMetrics() {
	mp.enabled.Store(false)
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool) MetricsEnabled() bool {
	return mp.enabled.Load()
}

var (
	_ Pool                   = (*threadPool)(nil)
	_ Pool                   = (*MetricsPool)(nil)
	_ metrics.Instrumentable = (*MetricsPool)(nil)
)
