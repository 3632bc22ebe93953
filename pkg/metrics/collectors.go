package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/poolflow/pkg/container"
)

// ContainerSource is a container whose counters can be scraped.
type ContainerSource interface {
	Name() string
	Stats() container.Stats
}

// WorkQueueSource is a work queue whose counters can be scraped.
type WorkQueueSource interface {
	GlobalQueueCount() int
	LocalItemCount() int
	LocalQueueCount() int
	ExtendedCapacity() int
	TotalExtensions() int64
	Steals() uint64
}

// RegisterContainer exposes the counters of c on the registry's registerer.
// Values are read on every scrape.
func (r *Registry) RegisterContainer(c ContainerSource) error {
	labels := prometheus.Labels{"container_name": c.Name()}
	opts := func(name, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   r.namespace,
			Subsystem:   "container",
			Name:        name,
			Help:        help,
			ConstLabels: labels,
		}
	}

	return r.register(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("elements", "Number of stored elements")),
			func() float64 { return float64(c.Stats().Count) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("available_elements", "Number of available elements")),
			func() float64 { return float64(c.Stats().Available) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("takes_total", "Total number of successful takes")),
			func() float64 { return float64(c.Stats().Takes) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("removals_total", "Total number of removed elements")),
			func() float64 { return float64(c.Stats().Removals) }),
	)
}

// RegisterWorkQueue exposes the counters of q under name.
func (r *Registry) RegisterWorkQueue(name string, q WorkQueueSource) error {
	labels := prometheus.Labels{"queue_name": name}
	opts := func(metric, help string) prometheus.Opts {
		return prometheus.Opts{
			Namespace:   r.namespace,
			Subsystem:   "workqueue",
			Name:        metric,
			Help:        help,
			ConstLabels: labels,
		}
	}

	return r.register(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("global_items", "Items in the global queue")),
			func() float64 { return float64(q.GlobalQueueCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("local_items", "Items across local queues")),
			func() float64 { return float64(q.LocalItemCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("local_queues", "Registered local queues")),
			func() float64 { return float64(q.LocalQueueCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts(opts("extended_capacity", "Outstanding capacity extensions")),
			func() float64 { return float64(q.ExtendedCapacity()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("extensions_total", "Total capacity extensions issued")),
			func() float64 { return float64(q.TotalExtensions()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts(opts("steals_total", "Total items stolen between local queues")),
			func() float64 { return float64(q.Steals()) }),
	)
}

func (r *Registry) register(collectors ...prometheus.Collector) error {
	for i, c := range collectors {
		if err := r.registerer.Register(c); err != nil {
			for _, done := range collectors[:i] {
				r.registerer.Unregister(done)
			}
			return err
		}
	}
	return nil
}
