// Package metrics provides Prometheus instrumentation for poolflow components.
//
// # Overview
//
// The metrics package instruments:
//   - Object pools (elements, idle elements, rents, rent wait, creations, destructions)
//   - Element containers (elements, available elements, takes, removals)
//   - Work queues (global and local items, capacity extensions, steals)
//   - Thread pools (size, active workers, queued tasks, task outcomes and durations)
//
// # Quick Start
//
// Wrap a pool with the metrics decorator:
//
//	p, _ := pool.NewDynamic(pool.DynamicConfig[*sql.Conn]{...})
//	mp := pool.NewWithMetrics[*sql.Conn](p, metrics.DefaultConfig())
//
//	tp, _ := threadpool.NewWithConfigAndMetrics(
//		threadpool.Config{Name: "jobs", WorkerCount: 8},
//		metrics.DefaultConfig(),
//	)
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//	r := metrics.ForConfig(config)
//
// ForConfig returns the same Registry for the same registerer and namespace,
// so several components can share one Prometheus registry.
//
// # Available Metrics
//
// ## Object Pool Metrics
//
//   - poolflow_pool_elements: Number of elements owned by the pool
//   - poolflow_pool_available_elements: Number of idle elements ready to be rented
//   - poolflow_pool_rents_total: Rent attempts by result ("ok", "timeout", "error")
//   - poolflow_pool_rent_wait_seconds: Time spent waiting for an element
//   - poolflow_pool_created_total, poolflow_pool_create_errors_total, poolflow_pool_destroyed_total
//
// ## Container Metrics
//
// Registered per container with Registry.RegisterContainer and read on scrape:
//
//   - poolflow_container_elements, poolflow_container_available_elements
//   - poolflow_container_takes_total, poolflow_container_removals_total
//
// ## Work Queue Metrics
//
// Registered per queue with Registry.RegisterWorkQueue:
//
//   - poolflow_workqueue_global_items, poolflow_workqueue_local_items
//   - poolflow_workqueue_local_queues, poolflow_workqueue_extended_capacity
//   - poolflow_workqueue_extensions_total, poolflow_workqueue_steals_total
//
// ## Thread Pool Metrics
//
//   - poolflow_threadpool_size, poolflow_threadpool_active_workers, poolflow_threadpool_queued_tasks
//   - poolflow_threadpool_tasks_executed_total, _completed_total, _failed_total
//   - poolflow_threadpool_task_duration_seconds, poolflow_threadpool_task_queue_seconds
//
// # Labels
//
//   - pool_name: name of the object pool or thread pool
//   - container_name: name of the container
//   - queue_name: name of the work queue
//   - result: outcome of a rent
//
// # Runtime Control
//
// Components implementing the Instrumentable interface support runtime control:
//
//	mp.DisableMetrics()           // Stop collecting metrics
//	mp.EnableMetrics(config)      // Re-enable with new config
//	enabled := mp.MetricsEnabled() // Check current state
package metrics
