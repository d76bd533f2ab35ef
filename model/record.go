package model

import "time"

// SimulationRecord is one timestep's full observation for one satellite:
// propagated motion, derived telemetry, and any collision/anomaly findings.
// Records are appended in time order and never mutated.
type SimulationRecord struct {
	Timestamp      time.Time `json:"time"`
	ElapsedSeconds float64   `json:"time_from_start"`

	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`

	AltitudeKm   float64 `json:"altitude_km"`
	SpeedKmS     float64 `json:"velocity_kms"`
	LatitudeDeg  float64 `json:"latitude"`
	LongitudeDeg float64 `json:"longitude"`

	// Collisions holds human-readable close-approach descriptions for this
	// tick, e.g. "Collision with BULLDOG Dist=3.00km".
	Collisions []string `json:"collisions,omitempty"`

	BatteryPct   float64     `json:"battery"`
	TemperatureC float64     `json:"temperature"`
	Orientation  Orientation `json:"orientation"`
	Anomalies    []string    `json:"anomalies,omitempty"`
}

// ProximityEvent is a detected close approach between two tracked satellites.
// Transient: computed once per unordered pair per step and not persisted.
type ProximityEvent struct {
	IDA        string
	IDB        string
	DistanceKm float64
}
