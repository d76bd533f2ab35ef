package core

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// Config carries every knob the simulation engine honors. Zero values are
// filled by DefaultConfig; ConfigFromEnv layers environment overrides on top.
type Config struct {
	// Satellites is the simulated fleet. Defaults to the two-satellite
	// CRTS1/BULLDOG demonstration fleet.
	Satellites []model.SatelliteConfig

	// SpanHours is the stepped-run horizon.
	SpanHours float64
	// StepSeconds is the stepped-run tick width.
	StepSeconds float64

	// CollisionThresholdKm is the proximity-event distance threshold.
	CollisionThresholdKm float64
	// LowAltitudeKm is the altitude below which a LowAltitude anomaly is
	// appended to a satellite's record.
	LowAltitudeKm float64
	// DriftToleranceKm bounds how far propagated altitude may deviate from
	// the target before the radial drift correction snaps it back.
	DriftToleranceKm float64
	// MinViableAltitudeKm is the hard floor: an initial altitude below it
	// aborts the run.
	MinViableAltitudeKm float64

	// FullOrbitPoints is the target point count for the one-orbit
	// visualization trajectory generated at setup.
	FullOrbitPoints int
	// MinPoints/MaxPoints bound the adaptive sampler's output.
	MinPoints int
	MaxPoints int

	// RandomizeOrbits replaces the configured fleet geometry with random
	// values in the demonstration envelope on every (re)initialization.
	RandomizeOrbits bool
	// Seed fixes all randomness for reproducible runs; zero means
	// time-derived.
	Seed int64
}

// DefaultSatellites is the demonstration fleet the original deployment ships.
func DefaultSatellites() []model.SatelliteConfig {
	return []model.SatelliteConfig{
		{
			Name:           "CRTS1",
			Description:    "CRTS-1 (Cosmic Ray Test Satellite)",
			AltitudeKm:     550,
			InclinationDeg: 51.6,
		},
		{
			Name:           "BULLDOG",
			Description:    "BULLDOG (Basic Utility Low-orbit Demonstration & Operations Gateway)",
			AltitudeKm:     530,
			InclinationDeg: 52.0,
		},
	}
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Satellites:           DefaultSatellites(),
		SpanHours:            24,
		StepSeconds:          5,
		CollisionThresholdKm: 5.0,
		LowAltitudeKm:        300.0,
		DriftToleranceKm:     50.0,
		MinViableAltitudeKm:  150.0,
		FullOrbitPoints:      500,
		MinPoints:            100,
		MaxPoints:            2000,
	}
}

// ConfigFromEnv builds a Config from SIM_* environment variables layered on
// the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.SpanHours = envFloat("SIM_SPAN_HOURS", cfg.SpanHours)
	cfg.StepSeconds = envFloat("SIM_STEP_SECONDS", cfg.StepSeconds)
	cfg.CollisionThresholdKm = envFloat("SIM_COLLISION_KM", cfg.CollisionThresholdKm)
	cfg.LowAltitudeKm = envFloat("SIM_LOW_ALT_KM", cfg.LowAltitudeKm)
	cfg.RandomizeOrbits = envBool("SIM_RANDOMIZE_ORBITS", cfg.RandomizeOrbits)
	cfg.Seed = int64(envFloat("SIM_SEED", float64(cfg.Seed)))
	return cfg
}

// Validate rejects configurations the engine cannot run.
func (c Config) Validate() error {
	if len(c.Satellites) == 0 {
		return &model.ConfigError{Reason: "no satellites configured"}
	}
	seen := make(map[string]bool, len(c.Satellites))
	for _, sat := range c.Satellites {
		if err := sat.Validate(); err != nil {
			return err
		}
		if seen[sat.Name] {
			return &model.ConfigError{Satellite: sat.Name, Reason: "duplicate satellite name"}
		}
		seen[sat.Name] = true
	}
	if c.SpanHours <= 0 {
		return &model.ConfigError{Reason: fmt.Sprintf("span %.2fh must be positive", c.SpanHours)}
	}
	if c.StepSeconds <= 0 {
		return &model.ConfigError{Reason: fmt.Sprintf("step %.2fs must be positive", c.StepSeconds)}
	}
	if c.CollisionThresholdKm <= 0 {
		return &model.ConfigError{Reason: "collision threshold must be positive"}
	}
	if c.MinPoints < 2 || c.MaxPoints < c.MinPoints {
		return &model.ConfigError{Reason: fmt.Sprintf("point bounds [%d,%d] are inconsistent", c.MinPoints, c.MaxPoints)}
	}
	return nil
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	return strings.EqualFold(raw, "true") || raw == "1"
}
