/*
Package threadpool provides a work-stealing thread pool.

Workers take tasks from a workqueue.Controller. Each worker owns a local
queue; tasks submitted from outside the pool go to the shared global queue,
tasks submitted by a running task go to its worker's local queue first. Idle
workers take from the global queue and steal from the local queues of busy
workers.

Basic usage:

	pool := threadpool.New(4, 100) // 4 workers, global queue capacity 100
	defer pool.Shutdown()

	err := pool.Submit(threadpool.TaskFunc(func(ctx context.Context) error {
		// Do work
		return nil
	}))

Nested submission:

A task may submit follow-up work with the context it was given. Such a submit
never blocks: when the local queue is full and the global queue is at
capacity, the global queue is extended past its bound for that task. A
follow-up task keeps the values of its parent's context but not its
cancellation.

	pool.Submit(threadpool.TaskFunc(func(ctx context.Context) error {
		for _, part := range split(job) {
			pool.SubmitWithContext(ctx, process(part))
		}
		return nil
	}))

Results:

Completed tasks are reported to Config.OnTaskComplete and, up to
Config.ResultBuffer pending results, on the Results channel. A task whose
context is done before it starts is skipped and reported with the context
error. A panicking task is reported with an error carrying the panic value.

Shutdown:

Shutdown stops accepting tasks, runs everything already queued and closes
its channel once all workers have exited. Submits fail with
errors.ErrClosed from then on, including submits from running tasks. ShutdownWithTimeout additionally
cancels the context of running tasks and skips queued ones once the timeout
has passed.

Metrics:

NewWithConfigAndMetrics returns a MetricsPool that records task counts,
queue wait and execution durations, pool gauges and the counters of the
underlying work queue.
*/
package threadpool
