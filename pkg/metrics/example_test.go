package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
)

// Example_basicUsage demonstrates basic metrics configuration.
func Example_basicUsage() {
	// Create a separate registry for this example
	registry := NewRegistry(prometheus.NewRegistry())

	registry.PoolRents.WithLabelValues("conns", "ok").Add(8)
	registry.PoolRents.WithLabelValues("conns", "timeout").Add(2)
	registry.PoolElements.WithLabelValues("conns").Set(4)

	fmt.Println(promtestutil.ToFloat64(registry.PoolRents.WithLabelValues("conns", "ok")))
	fmt.Println(promtestutil.ToFloat64(registry.PoolElements.WithLabelValues("conns")))

	// Output:
	// 8
	// 4
}

// Example_customRegistry demonstrates sharing a custom Prometheus registry.
func Example_customRegistry() {
	customRegistry := prometheus.NewRegistry()

	config := Config{
		Enabled:  true,
		Registry: customRegistry,
	}

	a := ForConfig(config)
	b := ForConfig(config)
	a.TasksExecuted.WithLabelValues("jobs").Inc()

	fmt.Printf("Custom registry enabled: %v\n", config.Enabled)
	fmt.Printf("Shared registry: %v\n", a == b)

	// Output:
	// Custom registry enabled: true
	// Shared registry: true
}
