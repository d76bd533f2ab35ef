package model

import (
	"fmt"
	"time"
)

// ElementSet is the minimal orbital parameter set defining an orbit and the
// satellite's position along it at Epoch. Mean motion is derived from altitude
// via Kepler's third law at generation time; the two are kept together so an
// encoded record can be rebuilt without recomputation.
type ElementSet struct {
	CatalogNumber  int    // 5-digit satellite identifier
	Classification byte   // 'U' for unclassified
	ElementSetNum  int    // element set number, 4 digits max
	RevNumber      int    // revolution number at epoch, 5 digits max

	AltitudeKm          float64
	InclinationDeg      float64
	Eccentricity        float64
	RAANDeg             float64
	ArgPerigeeDeg       float64
	MeanAnomalyDeg      float64
	MeanMotionRevPerDay float64

	Epoch time.Time // timezone-aware instant

	// DragTerm is the 8-character BSTAR field exactly as it appears in the
	// encoded record (implied-decimal mantissa plus signed exponent digit).
	DragTerm string
}

// Validate checks the element set for physically meaningful values.
// Angular fields must lie in their documented ranges and the derived mean
// motion must be positive.
func (es ElementSet) Validate() error {
	if es.CatalogNumber < 0 || es.CatalogNumber > 99999 {
		return &ConfigError{Satellite: fmt.Sprintf("%05d", es.CatalogNumber), Reason: "catalog number out of range"}
	}
	if es.InclinationDeg < 0 || es.InclinationDeg > 180 {
		return &ConfigError{Reason: fmt.Sprintf("inclination %.4f° outside [0,180]", es.InclinationDeg)}
	}
	if es.Eccentricity < 0 || es.Eccentricity >= 1 {
		return &ConfigError{Reason: fmt.Sprintf("eccentricity %.7f outside [0,1)", es.Eccentricity)}
	}
	for _, f := range []struct {
		name string
		deg  float64
	}{
		{"raan", es.RAANDeg},
		{"argp", es.ArgPerigeeDeg},
		{"mean anomaly", es.MeanAnomalyDeg},
	} {
		if f.deg < 0 || f.deg >= 360 {
			return &ConfigError{Reason: fmt.Sprintf("%s %.4f° outside [0,360)", f.name, f.deg)}
		}
	}
	if es.MeanMotionRevPerDay <= 0 {
		return &ConfigError{Reason: fmt.Sprintf("non-physical mean motion %.8f rev/day", es.MeanMotionRevPerDay)}
	}
	if es.Epoch.IsZero() {
		return &ConfigError{Reason: "element set epoch is unset"}
	}
	return nil
}

// PeriodSeconds returns the orbital period implied by the mean motion.
func (es ElementSet) PeriodSeconds() float64 {
	return 86400.0 / es.MeanMotionRevPerDay
}

// SatelliteConfig describes one simulated satellite: its identity and the
// target orbit geometry the synthesizer works toward.
type SatelliteConfig struct {
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	AltitudeKm     float64 `json:"altitude_km"`
	InclinationDeg float64 `json:"inclination_deg"`
}

// Validate rejects configurations the engine cannot simulate.
func (c SatelliteConfig) Validate() error {
	if c.Name == "" {
		return &ConfigError{Reason: "satellite name is empty"}
	}
	if c.AltitudeKm < 150 {
		return &ConfigError{Satellite: c.Name, Reason: fmt.Sprintf("target altitude %.1f km below 150 km viability floor", c.AltitudeKm)}
	}
	if c.InclinationDeg < 0 || c.InclinationDeg > 180 {
		return &ConfigError{Satellite: c.Name, Reason: fmt.Sprintf("inclination %.2f° outside [0,180]", c.InclinationDeg)}
	}
	return nil
}
