package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Config selects where a component's metrics are registered.
type Config struct {
	// Enabled turns recording on when the component is built.
	Enabled bool

	// Registry receives the collectors. Nil means prometheus.DefaultRegisterer.
	Registry prometheus.Registerer

	// Namespace prefixes every metric name. Empty means DefaultNamespace.
	Namespace string
}

// DefaultConfig records into the default Prometheus registerer.
func DefaultConfig() Config {
	return Config{Enabled: true}
}

func (c Config) registerer() prometheus.Registerer {
	if c.Registry == nil {
		return prometheus.DefaultRegisterer
	}
	return c.Registry
}

func (c Config) namespace() string {
	if c.Namespace == "" {
		return DefaultNamespace
	}
	return c.Namespace
}

// Instrumentable is implemented by the metrics decorators of pools and
// thread pools so recording can be toggled while they run.
type Instrumentable interface {
	EnableMetrics(config Config) error
	DisableMetrics()
	MetricsEnabled() bool
}
