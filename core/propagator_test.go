package core

import (
	"math"
	"testing"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
	"github.com/signalsfoundry/leo-orbit-sim/tle"
)

func testPropagator(t *testing.T, altitudeKm, inclinationDeg float64, epoch time.Time) (*Propagator, model.ElementSet) {
	t.Helper()
	synth := tle.NewSynthesizer(7)
	elems, err := synth.GenerateFor(model.SatelliteConfig{
		Name:           "TESTSAT",
		AltitudeKm:     altitudeKm,
		InclinationDeg: inclinationDeg,
	}, epoch)
	if err != nil {
		t.Fatalf("GenerateFor: %v", err)
	}
	line1, line2, err := tle.Encode(elems)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	prop, err := NewPropagator("TESTSAT", line1, line2, altitudeKm, nil)
	if err != nil {
		t.Fatalf("NewPropagator: %v", err)
	}
	return prop, elems
}

func TestPropagatorAtEpoch(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prop, _ := testPropagator(t, 550, 51.6, epoch)

	pt, err := prop.At(epoch)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	// Synthesized eccentricity can swing the instantaneous radius tens of
	// kilometres around the circular target.
	if math.Abs(pt.AltitudeKm-550) > 100 {
		t.Errorf("altitude at epoch = %.1fkm, want within 100km of 550", pt.AltitudeKm)
	}
	if pt.SpeedKmS < 7.2 || pt.SpeedKmS > 8.0 {
		t.Errorf("speed = %.3f km/s, want low-orbit range [7.2, 8.0]", pt.SpeedKmS)
	}
	if math.Abs(pt.LatitudeDeg) > 51.6+1.0 {
		t.Errorf("latitude %.2f exceeds inclination bound", pt.LatitudeDeg)
	}
	if pt.LongitudeDeg < -180 || pt.LongitudeDeg > 180 {
		t.Errorf("longitude %.2f out of range", pt.LongitudeDeg)
	}
	if !pt.Timestamp.Equal(epoch) {
		t.Errorf("timestamp = %v, want %v", pt.Timestamp, epoch)
	}
}

func TestPropagatorRejectsCorruptRecord(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	synth := tle.NewSynthesizer(7)
	elems, err := synth.Generate(epoch)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	line1, line2, err := tle.Encode(elems)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// Flip a digit without fixing the checksum.
	corrupt := []byte(line1)
	if corrupt[20] == '9' {
		corrupt[20] = '8'
	} else {
		corrupt[20] = '9'
	}
	if _, err := NewPropagator("BAD", string(corrupt), line2, 550, nil); err == nil {
		t.Fatal("corrupted line accepted")
	}
}

func TestGeneratePointsClosedInterval(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prop, _ := testPropagator(t, 550, 51.6, epoch)

	pts, err := prop.GeneratePoints(epoch, epoch.Add(10*time.Minute), 60)
	if err != nil {
		t.Fatalf("GeneratePoints: %v", err)
	}
	if len(pts) != 11 {
		t.Fatalf("got %d points, want 11 (both endpoints included)", len(pts))
	}
	for i, pt := range pts {
		want := float64(i * 60)
		if math.Abs(pt.ElapsedSeconds-want) > 1e-9 {
			t.Errorf("point %d elapsed = %v, want %v", i, pt.ElapsedSeconds, want)
		}
	}
}

func TestFullOrbitTrajectory(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prop, elems := testPropagator(t, 550, 51.6, epoch)

	period := elems.PeriodSeconds()
	pts, err := prop.FullOrbitTrajectory(epoch, period, 200)
	if err != nil {
		t.Fatalf("FullOrbitTrajectory: %v", err)
	}
	if len(pts) < 200 || len(pts) > 202 {
		t.Fatalf("got %d points, want about 201 for a closed 200-step orbit", len(pts))
	}
	// One period later the satellite is roughly back where it started.
	first, last := FromArray(pts[0].Position), FromArray(pts[len(pts)-1].Position)
	if d := first.DistanceTo(last); d > 500 {
		t.Errorf("start/end separation after one period = %.1fkm", d)
	}
}

func TestCorrectAltitudeDrift(t *testing.T) {
	epoch := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	prop, _ := testPropagator(t, 550, 51.6, epoch)

	vel := [3]float64{0, 7.6, 0}
	high := model.TrajectoryPoint{
		Position:   [3]float64{EarthRadiusKm + 700, 0, 0},
		Velocity:   vel,
		AltitudeKm: 700,
	}
	corrected, changed := prop.CorrectAltitudeDrift(high, 50)
	if !changed {
		t.Fatal("700km point at a 550km target was not corrected")
	}
	if math.Abs(corrected.AltitudeKm-550) > 1e-6 {
		t.Errorf("corrected altitude = %v, want 550", corrected.AltitudeKm)
	}
	if corrected.Velocity != vel {
		t.Errorf("velocity changed by drift correction: %v", corrected.Velocity)
	}

	near := model.TrajectoryPoint{
		Position:   [3]float64{EarthRadiusKm + 560, 0, 0},
		AltitudeKm: 560,
	}
	same, changed := prop.CorrectAltitudeDrift(near, 50)
	if changed || same.AltitudeKm != near.AltitudeKm {
		t.Errorf("in-tolerance point was altered: %+v", same)
	}
}
