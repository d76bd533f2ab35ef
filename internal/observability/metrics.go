package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/leo-orbit-sim/core"
)

// SimCollector bundles Prometheus metrics for the simulation engine and the
// HTTP API surface. It implements core.MetricsRecorder so the orchestrator
// can drive the engine-side series directly.
type SimCollector struct {
	gatherer prometheus.Gatherer

	PropagationDurations *prometheus.HistogramVec
	StepsTotal           prometheus.Counter
	StepFailures         *prometheus.CounterVec
	DriftCorrections     *prometheus.CounterVec
	ProximityEvents      prometheus.Counter

	Satellites prometheus.Gauge
	RunState   prometheus.Gauge

	HTTPRequests  *prometheus.CounterVec
	HTTPDurations *prometheus.HistogramVec
}

// NewSimCollector registers simulation Prometheus metrics against the
// provided registerer, defaulting to the global Prometheus registry when nil.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	propagations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sim_propagation_duration_seconds",
		Help:    "Latency of single SGP4 propagator evaluations, labeled by outcome.",
		Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.05},
	}, []string{"outcome"})
	propagations, err := registerHistogramVec(reg, propagations, "sim_propagation_duration_seconds")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_steps_total",
		Help: "Total number of completed simulation ticks.",
	}), "sim_steps_total")
	if err != nil {
		return nil, err
	}

	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_step_failures_total",
		Help: "Ticks at which a satellite's propagation failed and was skipped, by satellite.",
	}, []string{"satellite"})
	failures, err = registerCounterVec(reg, failures, "sim_step_failures_total")
	if err != nil {
		return nil, err
	}

	corrections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sim_drift_corrections_total",
		Help: "Altitude drift corrections applied, by satellite.",
	}, []string{"satellite"})
	corrections, err = registerCounterVec(reg, corrections, "sim_drift_corrections_total")
	if err != nil {
		return nil, err
	}

	proximity, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sim_proximity_events_total",
		Help: "Total close-approach events detected across all ticks.",
	}), "sim_proximity_events_total")
	if err != nil {
		return nil, err
	}

	satellites, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_satellites",
		Help: "Number of satellites in the active fleet.",
	}), "sim_satellites")
	if err != nil {
		return nil, err
	}

	runState, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sim_run_state",
		Help: "Background run state: 0 idle, 1 running, 2 done, 3 failed.",
	}), "sim_run_state")
	if err != nil {
		return nil, err
	}

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "api_requests_total",
		Help: "Total number of handled API requests, labeled by route, method, and status code.",
	}, []string{"route", "method", "code"})
	httpRequests, err = registerCounterVec(reg, httpRequests, "api_requests_total")
	if err != nil {
		return nil, err
	}

	httpDurations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "api_request_duration_seconds",
		Help:    "API request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route", "method"})
	httpDurations, err = registerHistogramVec(reg, httpDurations, "api_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &SimCollector{
		gatherer:             gatherer,
		PropagationDurations: propagations,
		StepsTotal:           steps,
		StepFailures:         failures,
		DriftCorrections:     corrections,
		ProximityEvents:      proximity,
		Satellites:           satellites,
		RunState:             runState,
		HTTPRequests:         httpRequests,
		HTTPDurations:        httpDurations,
	}, nil
}

// RecordPropagation satisfies core.MetricsRecorder.
func (c *SimCollector) RecordPropagation(d time.Duration, ok bool) {
	if c == nil || c.PropagationDurations == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.PropagationDurations.WithLabelValues(outcome).Observe(d.Seconds())
}

// RecordStep satisfies core.MetricsRecorder.
func (c *SimCollector) RecordStep(proximityEvents int) {
	if c == nil {
		return
	}
	if c.StepsTotal != nil {
		c.StepsTotal.Inc()
	}
	if c.ProximityEvents != nil && proximityEvents > 0 {
		c.ProximityEvents.Add(float64(proximityEvents))
	}
}

// RecordStepFailure satisfies core.MetricsRecorder.
func (c *SimCollector) RecordStepFailure(satellite string) {
	if c == nil || c.StepFailures == nil {
		return
	}
	c.StepFailures.WithLabelValues(satellite).Inc()
}

// RecordDriftCorrection satisfies core.MetricsRecorder.
func (c *SimCollector) RecordDriftCorrection(satellite string) {
	if c == nil || c.DriftCorrections == nil {
		return
	}
	c.DriftCorrections.WithLabelValues(satellite).Inc()
}

// SetSatelliteCount satisfies core.MetricsRecorder.
func (c *SimCollector) SetSatelliteCount(n int) {
	if c == nil || c.Satellites == nil {
		return
	}
	c.Satellites.Set(float64(n))
}

// SetRunState satisfies core.MetricsRecorder.
func (c *SimCollector) SetRunState(s core.RunState) {
	if c == nil || c.RunState == nil {
		return
	}
	c.RunState.Set(float64(s))
}

// ObserveHTTP records one handled API request.
func (c *SimCollector) ObserveHTTP(route, method string, code int, d time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	if c.HTTPRequests != nil {
		c.HTTPRequests.WithLabelValues(route, method, fmt.Sprintf("%d", code)).Inc()
	}
	if c.HTTPDurations != nil {
		c.HTTPDurations.WithLabelValues(route, method).Observe(d.Seconds())
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (c *SimCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}
