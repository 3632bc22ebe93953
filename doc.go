/*
Package poolflow provides generic object pools with pluggable element
selection and a work-stealing thread pool.

Object Pooling:
  - pkg/container: Slot storage for pooled values with Simple (any free
    element) and Prioritized (best element by a comparer) selection
  - pkg/pool: Static pools of caller-supplied values and dynamic pools that
    create, validate and destroy values on demand
  - pkg/maintenance: Cron-scheduled rescans and idle trimming of pools

Task Execution:
  - pkg/workqueue: Bounded global queue with elastic extension plus per-worker
    local queues with stealing
  - pkg/threadpool: Workers over a work queue, nested submission and shutdown

Support:
  - pkg/semaphore: Counting semaphore with context-aware waits
  - pkg/metrics: Prometheus instrumentation for pools and queues
  - pkg/common: Shared errors, validation, wait budgets and logging

Example usage:

	import (
		"github.com/vnykmshr/poolflow/pkg/pool"
		"github.com/vnykmshr/poolflow/pkg/threadpool"
	)

	conns, _ := pool.NewDynamic(pool.DynamicConfig[*Conn]{
		Operations:  connOps,
		MaxElements: 16,
	})
	workers := threadpool.New(4, 100) // 4 workers, queue 100

	workers.Submit(threadpool.TaskFunc(func(ctx context.Context) error {
		c, err := conns.Rent(ctx)
		if err != nil {
			return err
		}
		defer c.Release()
		return c.Value().Ping(ctx)
	}))
*/
package poolflow
