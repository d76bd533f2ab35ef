package model

// Anomaly tags emitted by the telemetry model. Evaluation is independent and
// non-exclusive: a record can carry several at once.
const (
	AnomalyLowBattery      = "LowBattery"
	AnomalyCriticalBattery = "CriticalBattery"
	AnomalyOverheat        = "Overheat"
	AnomalyOvercool        = "Overcool"
	AnomalyAttitudeError   = "AttitudeError"
	AnomalyLowAltitude     = "LowAltitude"
)

// TelemetryState is the evolving per-satellite subsystem state. It is owned
// exclusively by one satellite's evolution sequence: mutated once per
// simulated step and never read by other satellites.
type TelemetryState struct {
	BatteryPct          float64
	TemperatureC        float64
	OrbitPhaseRad       float64
	InEclipse           bool
	LastTransitionIndex int // step index of the most recent sunlit/eclipse flip
}

// InitialTelemetryState is the fixed state every satellite starts a run with.
func InitialTelemetryState() TelemetryState {
	return TelemetryState{
		BatteryPct:   80.0,
		TemperatureC: 20.0,
	}
}

// Orientation is a yaw/pitch/roll attitude sample in degrees.
type Orientation struct {
	YawDeg   float64 `json:"yaw_deg"`
	PitchDeg float64 `json:"pitch_deg"`
	RollDeg  float64 `json:"roll_deg"`
}
