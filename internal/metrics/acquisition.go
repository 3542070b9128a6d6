// internal/metrics/acquisition.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/modbus-acquisitor/internal/acquisition"
	"github.com/tamzrod/modbus-acquisitor/internal/state"
)

// Acquisition turns scheduler reports and point state changes into metrics.
type Acquisition struct {
	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	dispatch       *prometheus.CounterVec
	dispatchErrors *prometheus.CounterVec
	dispatchTime   *prometheus.HistogramVec
	value          *prometheus.GaugeVec
	health         *prometheus.GaugeVec
}

var (
	_ acquisition.Observer = (*Acquisition)(nil)
	_ state.Publisher      = (*Acquisition)(nil)
)

// NewAcquisition registers every acquisition metric through f.
func NewAcquisition(f *MetricFactory) *Acquisition {
	return &Acquisition{
		ticks:          f.NewTicksTotal(),
		tickDuration:   f.NewTickDurationSeconds(),
		dispatch:       f.NewDispatchTotal(),
		dispatchErrors: f.NewDispatchErrorsTotal(),
		dispatchTime:   f.NewDispatchDurationSeconds(),
		value:          f.NewPointValue(),
		health:         f.NewPointHealth(),
	}
}

func (a *Acquisition) ObserveDispatch(r acquisition.DispatchReport) {
	a.dispatch.WithLabelValues(r.Item).Inc()
	a.dispatchTime.WithLabelValues(r.Item).Observe(r.Duration.Seconds())
	if r.Err != nil {
		a.dispatchErrors.WithLabelValues(r.Item).Inc()
	}
}

func (a *Acquisition) ObserveTick(r acquisition.TickReport) {
	a.ticks.Inc()
	a.tickDuration.Observe(r.Duration.Seconds())
}

// Publish tracks health always and value only while the point is healthy.
func (a *Acquisition) Publish(p state.PointState) error {
	a.health.WithLabelValues(p.Name).Set(float64(p.Health))
	if p.Health == state.HealthOK {
		a.value.WithLabelValues(p.Name).Set(p.Value)
	}
	return nil
}
