// Package metrics provides Prometheus instrumentation for poolflow components.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every poolflow metric.
const DefaultNamespace = "poolflow"

// Registry holds all metric instances for poolflow components.
type Registry struct {
	// Object Pool Metrics
	PoolElements     *prometheus.GaugeVec
	PoolAvailable    *prometheus.GaugeVec
	PoolRents        *prometheus.CounterVec
	PoolRentWait     *prometheus.HistogramVec
	PoolCreated      *prometheus.CounterVec
	PoolCreateErrors *prometheus.CounterVec
	PoolDestroyed    *prometheus.CounterVec

	// Thread Pool Metrics
	TasksExecuted         *prometheus.CounterVec
	TasksCompleted        *prometheus.CounterVec
	TasksFailed           *prometheus.CounterVec
	TaskExecutionDuration *prometheus.HistogramVec
	TaskQueueDuration     *prometheus.HistogramVec
	ThreadPoolSize        *prometheus.GaugeVec
	ThreadPoolActive      *prometheus.GaugeVec
	ThreadPoolQueued      *prometheus.GaugeVec

	namespace  string
	registerer prometheus.Registerer
}

// DefaultRegistry is the default metrics registry used by poolflow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
	registries.Store(registryKey{prometheus.DefaultRegisterer, DefaultNamespace}, DefaultRegistry)
}

type registryKey struct {
	reg       prometheus.Registerer
	namespace string
}

// registries caches one Registry per registerer and namespace, since
// registering the same collectors twice panics.
var registries sync.Map

// ForConfig returns the Registry for config, creating it on first use.
// A nil config.Registry selects prometheus.DefaultRegisterer.
func ForConfig(config Config) *Registry {
	reg, ns := config.registerer(), config.namespace()
	key := registryKey{reg, ns}
	if r, ok := registries.Load(key); ok {
		return r.(*Registry)
	}
	r, _ := registries.LoadOrStore(key, newRegistry(reg, ns))
	return r.(*Registry)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace)
}

func newRegistry(reg prometheus.Registerer, ns string) *Registry {
	factory := promauto.With(reg)
	poolLabels := []string{"pool_name"}

	return &Registry{
		namespace:  ns,
		registerer: reg,

		// Object Pool Metrics
		PoolElements: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "elements",
				Help:      "Number of elements owned by the pool",
			},
			poolLabels,
		),

		PoolAvailable: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "available_elements",
				Help:      "Number of idle elements ready to be rented",
			},
			poolLabels,
		),

		PoolRents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "rents_total",
				Help:      "Total number of rent attempts by result",
			},
			[]string{"pool_name", "result"},
		),

		PoolRentWait: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "rent_wait_seconds",
				Help:      "Time spent waiting for an element",
				Buckets:   prometheus.DefBuckets,
			},
			poolLabels,
		),

		PoolCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "created_total",
				Help:      "Total number of elements created",
			},
			poolLabels,
		),

		PoolCreateErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "create_errors_total",
				Help:      "Total number of failed element creations",
			},
			poolLabels,
		),

		PoolDestroyed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "pool",
				Name:      "destroyed_total",
				Help:      "Total number of elements destroyed",
			},
			poolLabels,
		),

		// Thread Pool Metrics
		TasksExecuted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "tasks_executed_total",
				Help:      "Total number of tasks executed",
			},
			poolLabels,
		),

		TasksCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "tasks_completed_total",
				Help:      "Total number of tasks completed successfully",
			},
			poolLabels,
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "tasks_failed_total",
				Help:      "Total number of tasks that failed",
			},
			poolLabels,
		),

		TaskExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "task_duration_seconds",
				Help:      "Time spent executing tasks",
				Buckets:   prometheus.DefBuckets,
			},
			poolLabels,
		),

		TaskQueueDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "task_queue_seconds",
				Help:      "Time tasks spent queued before execution",
				Buckets:   prometheus.DefBuckets,
			},
			poolLabels,
		),

		ThreadPoolSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "size",
				Help:      "Current thread pool size",
			},
			poolLabels,
		),

		ThreadPoolActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "active_workers",
				Help:      "Number of workers executing a task",
			},
			poolLabels,
		),

		ThreadPoolQueued: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: ns,
				Subsystem: "threadpool",
				Name:      "queued_tasks",
				Help:      "Number of queued tasks, local and global",
			},
			poolLabels,
		),
	}
}
