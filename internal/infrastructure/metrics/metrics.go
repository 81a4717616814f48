// Package metrics exposes the node's Prometheus instruments.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "farmnode"

// Publish results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the node's instruments on a private registry.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	telemetryPublished *prometheus.CounterVec
	sensorFailures     *prometheus.CounterVec
	commands           *prometheus.CounterVec
	cycleDuration      prometheus.Histogram
	connectionLost     prometheus.Counter
	actuatorEngaged    *prometheus.GaugeVec
}

// New creates and registers every instrument plus the Go runtime collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		telemetryPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_publish_total",
			Help:      "Telemetry publish attempts by result.",
		}, []string{"result"}),
		sensorFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sensor_read_failures_total",
			Help:      "Failed sensor reads by telemetry field.",
		}, []string{"sensor"}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Actuator commands by actuator, command and source.",
		}, []string{"actuator", "command", "source"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of one sample-publish cycle.",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.3, 0.5, 1, 2, 5},
		}),
		connectionLost: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mqtt_connection_lost_total",
			Help:      "Unexpected broker disconnections.",
		}),
		actuatorEngaged: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actuator_engaged",
			Help:      "Last commanded actuator state (1 engaged, 0 disengaged).",
		}, []string{"actuator"}),
	}

	m.registry.MustRegister(
		m.telemetryPublished,
		m.sensorFailures,
		m.commands,
		m.cycleDuration,
		m.connectionLost,
		m.actuatorEngaged,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// TelemetryPublished counts one publish attempt.
func (m *Metrics) TelemetryPublished(err error) {
	if m == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.telemetryPublished.WithLabelValues(result).Inc()
}

// SensorFailed counts one failed read of field sensor.
func (m *Metrics) SensorFailed(sensor string) {
	if m == nil {
		return
	}
	m.sensorFailures.WithLabelValues(sensor).Inc()
}

// CommandApplied counts one applied command and records the resulting state.
func (m *Metrics) CommandApplied(actuator, command, source string, engaged bool) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(actuator, command, source).Inc()
	v := 0.0
	if engaged {
		v = 1
	}
	m.actuatorEngaged.WithLabelValues(actuator).Set(v)
}

// CycleObserved records the duration of one cycle.
func (m *Metrics) CycleObserved(d time.Duration) {
	if m == nil {
		return
	}
	m.cycleDuration.Observe(d.Seconds())
}

// ConnectionLost counts one unexpected disconnection.
func (m *Metrics) ConnectionLost() {
	if m == nil {
		return
	}
	m.connectionLost.Inc()
}
