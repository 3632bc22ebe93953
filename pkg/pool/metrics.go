package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/poolflow/pkg/metrics"
)

// MetricsPool wraps a Pool with Prometheus metrics collection.
type MetricsPool[T any] struct {
	pool     Pool[T]
	name     string
	registry atomic.Pointer[metrics.Registry]
	enabled  atomic.Bool

	// mu guards last, the counters already exported.
	mu   sync.Mutex
	last Stats
}

// NewWithMetrics wraps p with metrics. A disabled config returns a wrapper
// that only forwards calls until EnableMetrics is called.
func NewWithMetrics[T any](p Pool[T], config metrics.Config) *MetricsPool[T] {
	mp := &MetricsPool[T]{pool: p, name: p.Name()}
	mp.registry.Store(metrics.ForConfig(config))
	mp.enabled.Store(config.Enabled)
	mp.updateMetrics()
	return mp
}

// updateMetrics exports the current gauges and the counter growth since the
// previous call.
func (mp *MetricsPool[T]) updateMetrics() {
	if !mp.enabled.Load() {
		return
	}
	r := mp.registry.Load()
	s := mp.pool.Stats()

	r.PoolElements.WithLabelValues(mp.name).Set(float64(s.Elements))
	r.PoolAvailable.WithLabelValues(mp.name).Set(float64(s.Available))

	mp.mu.Lock()
	defer mp.mu.Unlock()
	if d := s.Created - mp.last.Created; d > 0 {
		r.PoolCreated.WithLabelValues(mp.name).Add(float64(d))
		mp.last.Created = s.Created
	}
	if d := s.Destroyed - mp.last.Destroyed; d > 0 {
		r.PoolDestroyed.WithLabelValues(mp.name).Add(float64(d))
		mp.last.Destroyed = s.Destroyed
	}
	if d := s.CreateErrors - mp.last.CreateErrors; d > 0 {
		r.PoolCreateErrors.WithLabelValues(mp.name).Add(float64(d))
		mp.last.CreateErrors = s.CreateErrors
	}
}

// Name returns the pool name.
func (mp *MetricsPool[T]) Name() string { return mp.name }

// Rent blocks until a value is available.
func (mp *MetricsPool[T]) Rent(ctx context.Context) (*Rented[T], error) {
	return mustRent[T](ctx, mp, "pool.metrics")
}

// TryRent rents a value and records the wait and its outcome.
func (mp *MetricsPool[T]) TryRent(ctx context.Context, timeout time.Duration) (*Rented[T], bool, error) {
	start := time.Now()
	r, ok, err := mp.pool.TryRent(ctx, timeout)

	if mp.enabled.Load() {
		reg := mp.registry.Load()
		reg.PoolRentWait.WithLabelValues(mp.name).Observe(time.Since(start).Seconds())
		result := "ok"
		switch {
		case err != nil:
			result = "error"
		case !ok:
			result = "timeout"
		}
		reg.PoolRents.WithLabelValues(mp.name, result).Inc()
		mp.updateMetrics()
	}
	if r != nil {
		r.onRelease = mp.updateMetrics
	}
	return r, ok, err
}

// Count returns the number of values owned by the pool.
func (mp *MetricsPool[T]) Count() int { return mp.pool.Count() }

// AvailableCount returns the number of idle values.
func (mp *MetricsPool[T]) AvailableCount() int { return mp.pool.AvailableCount() }

// RescanContainer rescans the wrapped pool.
func (mp *MetricsPool[T]) RescanContainer() error {
	err := mp.pool.RescanContainer()
	mp.updateMetrics()
	return err
}

// Stats returns the wrapped pool counters.
func (mp *MetricsPool[T]) Stats() Stats { return mp.pool.Stats() }

// Close closes the wrapped pool.
func (mp *MetricsPool[T]) Close() error {
	err := mp.pool.Close()
	mp.updateMetrics()
	return err
}

// Unwrap returns the wrapped pool.
func (mp *MetricsPool[T]) Unwrap() Pool[T] { return mp.pool }

// EnableMetrics enables metrics collection.
func (mp *MetricsPool[T]) EnableMetrics(config metrics.Config) error {
	mp.registry.Store(metrics.ForConfig(config))
	mp.enabled.Store(config.Enabled)
	mp.updateMetrics()
	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool[T]) DisableMetrics() { mp.enabled.Store(false) }

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool[T]) MetricsEnabled() bool { return mp.enabled.Load() }

var (
	_ Pool[int]              = (*StaticPool[int])(nil)
	_ Pool[int]              = (*DynamicPool[int])(nil)
	_ Pool[int]              = (*MetricsPool[int])(nil)
	_ metrics.Instrumentable = (*MetricsPool[int])(nil)
)
