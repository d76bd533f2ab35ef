package model

import "time"

// TrajectoryPoint is one propagated observation of a satellite. Points are
// append-only and never mutated after creation; the drift-corrected position
// replaces the raw one before the point is published.
type TrajectoryPoint struct {
	Position [3]float64 `json:"position"` // inertial, km
	Velocity [3]float64 `json:"velocity"` // km/s

	AltitudeKm   float64 `json:"altitude_km"`
	SpeedKmS     float64 `json:"velocity_kms"`
	LatitudeDeg  float64 `json:"latitude"`
	LongitudeDeg float64 `json:"longitude"`

	Timestamp      time.Time `json:"time"`
	ElapsedSeconds float64   `json:"time_from_start"` // seconds since run start
}
