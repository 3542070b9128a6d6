// internal/metrics/factory.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

// MetricFactory creates and registers acquisition metrics.
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory creates a factory bound to reg.
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// NewTicksTotal counts completed scheduler ticks.
func (m *MetricFactory) NewTicksTotal() prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "acquisition_ticks_total",
		Help: "Total scheduler ticks processed",
	})
	m.reg.MustRegister(c)
	return c
}

// NewDispatchTotal counts read commands issued per point, successful or not.
func (m *MetricFactory) NewDispatchTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "acquisition_dispatch_total",
		Help: "Total read commands dispatched",
	}, []string{"point"})
	m.reg.MustRegister(c)
	return c
}

// NewDispatchErrorsTotal counts failed read commands per point.
func (m *MetricFactory) NewDispatchErrorsTotal() *prometheus.CounterVec {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "acquisition_dispatch_errors_total",
		Help: "Total read commands that failed",
	}, []string{"point"})
	m.reg.MustRegister(c)
	return c
}

// NewTickDurationSeconds records how long each tick took, dispatches included.
func (m *MetricFactory) NewTickDurationSeconds() prometheus.Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "acquisition_tick_duration_seconds",
		Help:    "Tick processing duration",
		Buckets: prometheus.DefBuckets,
	})
	m.reg.MustRegister(h)
	return h
}

// NewDispatchDurationSeconds records the duration of single read commands.
func (m *MetricFactory) NewDispatchDurationSeconds() *prometheus.HistogramVec {
	h := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "acquisition_dispatch_duration_seconds",
		Help:    "Read command duration per point",
		Buckets: prometheus.DefBuckets,
	}, []string{"point"})
	m.reg.MustRegister(h)
	return h
}

// NewPointValue exposes the latest engineering value per point.
func (m *MetricFactory) NewPointValue() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acquisition_point_value",
		Help: "Latest scaled value per point",
	}, []string{"point"})
	m.reg.MustRegister(g)
	return g
}

// NewPointHealth exposes the health code per point (0 unknown, 1 ok, 2 error).
func (m *MetricFactory) NewPointHealth() *prometheus.GaugeVec {
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "acquisition_point_health",
		Help: "Health code per point",
	}, []string{"point"})
	m.reg.MustRegister(g)
	return g
}
