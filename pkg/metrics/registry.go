package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry manages Prometheus metric registration
type Registry struct {
	registry    *prometheus.Registry
	syncMetrics *SyncMetrics
}

// NewRegistry creates a new metrics registry with default naming
func NewRegistry() *Registry {
	return NewRegistryWithConfig("gnss", "timesync")
}

// NewRegistryWithConfig creates a new metrics registry with custom namespace and subsystem
func NewRegistryWithConfig(namespace, subsystem string) *Registry {
	return &Registry{
		registry:    prometheus.NewRegistry(),
		syncMetrics: NewSyncMetricsWithConfig(namespace, subsystem),
	}
}

// Register registers all timesync metrics
func (r *Registry) Register() error {
	// Register the timesync metrics collector
	if err := r.registry.Register(r.syncMetrics); err != nil {
		return err
	}

	// Register Go runtime metrics
	r.registry.MustRegister(collectors.NewGoCollector())
	r.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return nil
}

// GetRegistry returns the underlying Prometheus registry
func (r *Registry) GetRegistry() *prometheus.Registry {
	return r.registry
}

// GetMetrics returns the timesync metrics instance
func (r *Registry) GetMetrics() *SyncMetrics {
	return r.syncMetrics
}

// MustRegister registers all metrics and panics on error
func (r *Registry) MustRegister() {
	if err := r.Register(); err != nil {
		panic(err)
	}
}
