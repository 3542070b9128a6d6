// internal/metrics/registry.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registers isolates callers from the concrete Prometheus registry, so tests
// can hand in a fresh one.
type Registers interface {
	prometheus.Registerer
}

// promRegistry wraps *prometheus.Registry.
type promRegistry struct {
	registry *prometheus.Registry
}

// NewPromRegistry wraps registry as Registers.
func NewPromRegistry(registry *prometheus.Registry) Registers {
	return &promRegistry{registry: registry}
}

// MustRegister panics on the first collector that fails to register.
func (p *promRegistry) MustRegister(collectors ...prometheus.Collector) {
	for _, c := range collectors {
		if err := p.registry.Register(c); err != nil {
			panic(err)
		}
	}
}

func (p *promRegistry) Unregister(collector prometheus.Collector) bool {
	return p.registry.Unregister(collector)
}

func (p *promRegistry) Register(collector prometheus.Collector) error {
	return p.registry.Register(collector)
}
