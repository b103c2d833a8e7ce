// Package metrics counts what a limit checking run saw, for export to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the counters of one run on its own registry
type Collector struct {
	registry *prometheus.Registry

	frames      prometheus.Counter
	transitions prometheus.Counter
	failures    prometheus.Counter
	severities  *prometheus.CounterVec
	worst       prometheus.Gauge
}

// New returns a Collector whose metric names start with namespace
func New(namespace string) *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_checked_total",
			Help:      "Telemetry frames checked against limits.",
		}),
		transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Instrument state changes between consecutive frames.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_failures_total",
			Help:      "Frames whose check was aborted by an extraction or state error.",
		}),
		severities: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "limit_exceedances_total",
			Help:      "Parameter values outside caution or action limits.",
		}, []string{"param", "unit", "severity"}),
		worst: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worst_level",
			Help:      "Worst limit status of the run: 0 OK, 1 CAUTION, 2 ACTION.",
		}),
	}
	c.registry.MustRegister(c.frames, c.transitions, c.failures, c.severities, c.worst)
	return c
}

// Registry returns the registry holding the run's metrics
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// FrameChecked counts a completed frame
func (c *Collector) FrameChecked() { c.frames.Inc() }

// Transition counts a state change
func (c *Collector) Transition() { c.transitions.Inc() }

// FrameFailed counts an aborted frame
func (c *Collector) FrameFailed() { c.failures.Inc() }

// Exceedance counts a value outside its limits
func (c *Collector) Exceedance(param, unit, severity string) {
	c.severities.WithLabelValues(param, unit, severity).Inc()
}

// Worst records the run's worst level
func (c *Collector) Worst(level int) { c.worst.Set(float64(level)) }

// WriteTextfile writes the metrics in the text exposition format for the node
// exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
