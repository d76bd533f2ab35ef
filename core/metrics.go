package core

import "time"

// MetricsRecorder is the engine-side view of the metrics pipeline. The
// observability package provides the Prometheus-backed implementation;
// passing nil disables instrumentation.
type MetricsRecorder interface {
	// RecordPropagation observes one propagator evaluation.
	RecordPropagation(d time.Duration, ok bool)
	// RecordStep observes one completed simulation tick and the number of
	// proximity events it produced.
	RecordStep(proximityEvents int)
	// RecordStepFailure counts a satellite skipped at one tick.
	RecordStepFailure(satellite string)
	// RecordDriftCorrection counts an altitude drift correction.
	RecordDriftCorrection(satellite string)
	// SetSatelliteCount publishes the active fleet size.
	SetSatelliteCount(n int)
	// SetRunState publishes the background run state.
	SetRunState(s RunState)
}

type noopMetrics struct{}

func (noopMetrics) RecordPropagation(time.Duration, bool) {}
func (noopMetrics) RecordStep(int)                        {}
func (noopMetrics) RecordStepFailure(string)              {}
func (noopMetrics) RecordDriftCorrection(string)          {}
func (noopMetrics) SetSatelliteCount(int)                 {}
func (noopMetrics) SetRunState(RunState)                  {}
