package core

import (
	"math"
	"math/rand"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// Eclipse window in orbit phase: the satellite is shadowed while its phase
// lies in [0.7π, 1.3π).
const (
	eclipseStartRad = 0.7 * math.Pi
	eclipseEndRad   = 1.3 * math.Pi
)

// Battery drain rates in percent per hour.
const (
	drainEclipsePctPerHour = 2.5
	drainSunlitPctPerHour  = 0.8
)

// Battery operating envelope in percent.
const (
	batteryFloorPct   = 5.0
	batteryCeilingPct = 100.0
)

// Thermal targets the hull relaxes toward, in °C.
const (
	targetTempEclipseC = -20.0
	targetTempSunlitC  = 35.0
)

// TelemetrySample is one step's derived subsystem observation.
type TelemetrySample struct {
	BatteryPct   float64
	TemperatureC float64
	Orientation  model.Orientation
	Anomalies    []string
	InEclipse    bool
}

// TelemetrySynthesizer evolves one satellite's subsystem state step by step.
// Battery, temperature, and attitude are driven by a two-state eclipse phase
// machine. The state is exclusively owned: one synthesizer per satellite,
// stepped once per simulation tick, never shared.
type TelemetrySynthesizer struct {
	rng               *rand.Rand
	stepSeconds       float64
	nominalAltitudeKm float64
	state             model.TelemetryState
}

// NewTelemetrySynthesizer builds a synthesizer with the fixed initial state.
// nominalAltitudeKm anchors the orbital period estimate used for phase
// advance. A zero seed selects a time-derived one.
func NewTelemetrySynthesizer(nominalAltitudeKm, stepSeconds float64, seed int64) *TelemetrySynthesizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &TelemetrySynthesizer{
		rng:               rand.New(rand.NewSource(seed)),
		stepSeconds:       stepSeconds,
		nominalAltitudeKm: nominalAltitudeKm,
		state:             model.InitialTelemetryState(),
	}
}

// State returns a copy of the current evolution state.
func (t *TelemetrySynthesizer) State() model.TelemetryState {
	return t.state
}

// Step advances the state machine by one tick and returns the derived sample.
// stepIndex is the position in the run's time grid; altitudeKm is the
// satellite's current (drift-corrected) altitude.
func (t *TelemetrySynthesizer) Step(stepIndex int, altitudeKm float64) TelemetrySample {
	// Orbital period: 90 minutes base, shifted two minutes per 100 km of
	// deviation from the nominal shell.
	altitudeFactor := (altitudeKm - t.nominalAltitudeKm) / 100.0
	periodS := 90.0*60.0 + altitudeFactor*2.0*60.0

	phase := math.Mod(t.state.OrbitPhaseRad+2.0*math.Pi*t.stepSeconds/periodS, 2.0*math.Pi)
	inEclipse := phase >= eclipseStartRad && phase < eclipseEndRad

	if inEclipse != t.state.InEclipse {
		t.state.LastTransitionIndex = stepIndex
	}

	hoursPerStep := t.stepSeconds / 3600.0
	drain := drainSunlitPctPerHour
	if inEclipse {
		drain = drainEclipsePctPerHour
	}
	battery := clamp(t.state.BatteryPct-drain*hoursPerStep, batteryFloorPct, batteryCeilingPct)

	// Exponential relaxation toward the regime target; the hull never jumps.
	target := targetTempSunlitC
	if inEclipse {
		target = targetTempEclipseC
	}
	target += t.uniform(-2.0, 2.0)
	rate := 0.01 * hoursPerStep * 60.0
	temperature := t.state.TemperatureC + (target-t.state.TemperatureC)*rate

	// Attitude noise grows as the battery depletes and reaction wheels
	// receive less power.
	stability := math.Min(1.0, battery/40.0)
	orientation := model.Orientation{
		YawDeg:   round1(t.uniform(-2, 2) / stability),
		PitchDeg: round1(t.uniform(-1, 1) / stability),
		RollDeg:  round1(t.uniform(-1, 1) / stability),
	}

	t.state.BatteryPct = battery
	t.state.TemperatureC = temperature
	t.state.OrbitPhaseRad = phase
	t.state.InEclipse = inEclipse

	return TelemetrySample{
		BatteryPct:   round1(battery),
		TemperatureC: round1(temperature),
		Orientation:  orientation,
		Anomalies:    evaluateAnomalies(battery, temperature, orientation),
		InEclipse:    inEclipse,
	}
}

// evaluateAnomalies recomputes the independent anomaly conditions from
// scratch. The caller appends LowAltitude separately: altitude is not part of
// the telemetry state.
func evaluateAnomalies(batteryPct, temperatureC float64, o model.Orientation) []string {
	var anomalies []string
	if batteryPct < 20.0 {
		anomalies = append(anomalies, model.AnomalyLowBattery)
	}
	if batteryPct < 10.0 {
		anomalies = append(anomalies, model.AnomalyCriticalBattery)
	}
	if temperatureC > 50.0 {
		anomalies = append(anomalies, model.AnomalyOverheat)
	}
	if temperatureC < -40.0 {
		anomalies = append(anomalies, model.AnomalyOvercool)
	}
	if math.Abs(o.PitchDeg) > 5.0 || math.Abs(o.RollDeg) > 5.0 {
		anomalies = append(anomalies, model.AnomalyAttitudeError)
	}
	return anomalies
}

func (t *TelemetrySynthesizer) uniform(lo, hi float64) float64 {
	return lo + t.rng.Float64()*(hi-lo)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10.0) / 10.0
}
