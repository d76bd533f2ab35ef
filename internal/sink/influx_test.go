package sink

import (
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

func TestPointCarriesTelemetryFields(t *testing.T) {
	rec := model.SimulationRecord{
		Timestamp:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		AltitudeKm:   550.2,
		SpeedKmS:     7.59,
		LatitudeDeg:  12.5,
		LongitudeDeg: -45.0,
		BatteryPct:   79.9,
		TemperatureC: 21.3,
		Orientation:  model.Orientation{YawDeg: 1.0, PitchDeg: -0.5, RollDeg: 0.2},
		Anomalies:    []string{model.AnomalyLowBattery},
		Collisions:   []string{"Collision with BULLDOG Dist=3.00km"},
	}

	p := point("CRTS1", rec)
	if p.Name() != measurement {
		t.Fatalf("measurement = %q, want %q", p.Name(), measurement)
	}
	if !p.Time().Equal(rec.Timestamp) {
		t.Errorf("point time = %v, want %v", p.Time(), rec.Timestamp)
	}

	tags := make(map[string]string)
	for _, tag := range p.TagList() {
		tags[tag.Key] = tag.Value
	}
	if tags["satellite"] != "CRTS1" {
		t.Errorf("satellite tag = %q", tags["satellite"])
	}

	fields := make(map[string]interface{})
	for _, f := range p.FieldList() {
		fields[f.Key] = f.Value
	}
	for _, key := range []string{
		"altitude_km", "velocity_kms", "latitude", "longitude",
		"battery", "temperature", "yaw_deg", "pitch_deg", "roll_deg",
	} {
		if _, ok := fields[key]; !ok {
			t.Errorf("field %q missing", key)
		}
	}
	if got, _ := fields["anomalies"].(string); got != model.AnomalyLowBattery {
		t.Errorf("anomalies field = %q", got)
	}
	if got, _ := fields["collisions"].(string); !strings.Contains(got, "BULLDOG") {
		t.Errorf("collisions field = %q", got)
	}
}

func TestPointOmitsEmptyEventFields(t *testing.T) {
	p := point("CRTS1", model.SimulationRecord{Timestamp: time.Now()})
	for _, f := range p.FieldList() {
		if f.Key == "anomalies" || f.Key == "collisions" {
			t.Errorf("empty %s serialized as field", f.Key)
		}
	}
}
