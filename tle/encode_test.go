package tle

import (
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

func testElementSet() model.ElementSet {
	return model.ElementSet{
		CatalogNumber:       43210,
		Classification:      'U',
		ElementSetNum:       999,
		RevNumber:           2412,
		AltitudeKm:          550,
		InclinationDeg:      51.6443,
		Eccentricity:        0.0004123,
		RAANDeg:             247.4627,
		ArgPerigeeDeg:       130.536,
		MeanAnomalyDeg:      325.0288,
		MeanMotionRevPerDay: 15.07842000,
		Epoch:               time.Date(2026, 8, 30, 12, 30, 0, 0, time.UTC),
		DragTerm:            " 29060-4",
	}
}

func TestEncodeProducesFixedWidthLines(t *testing.T) {
	line1, line2, err := Encode(testElementSet())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(line1) != LineLength || len(line2) != LineLength {
		t.Fatalf("line lengths %d/%d, want %d", len(line1), len(line2), LineLength)
	}
	if line1[0] != '1' || line2[0] != '2' {
		t.Fatalf("record markers %q/%q, want '1'/'2'", line1[0], line2[0])
	}
}

func TestChecksumMatchesAppendedDigit(t *testing.T) {
	s := NewSynthesizer(7)
	now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	for i := 0; i < 200; i++ {
		es, err := s.Generate(now)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		line1, line2, err := Encode(es)
		if err != nil {
			t.Fatalf("Encode %05d: %v", es.CatalogNumber, err)
		}
		for n, line := range []string{line1, line2} {
			appended, err := strconv.Atoi(string(line[LineLength-1]))
			if err != nil {
				t.Fatalf("line %d checksum column is %q", n+1, line[LineLength-1])
			}
			if got := Checksum(line); got != appended {
				t.Fatalf("line %d: recomputed checksum %d, appended %d\n%s", n+1, got, appended, line)
			}
		}
	}
}

func TestChecksumKnownLine(t *testing.T) {
	// ISS-style record with a hand-verified checksum: digit sum plus one per
	// minus sign over columns 0-67 is 153, so the appended digit must be 3.
	line := "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9993"
	if got := Checksum(line); got != 3 {
		t.Fatalf("Checksum = %d, want 3", got)
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	s := NewSynthesizer(11)
	now := time.Date(2026, 8, 30, 6, 0, 0, 0, time.UTC)

	for i := 0; i < 100; i++ {
		es, err := s.Generate(now)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		line1, line2, err := Encode(es)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		got, err := Decode(line1, line2)
		if err != nil {
			t.Fatalf("Decode: %v\n%s\n%s", err, line1, line2)
		}

		angular := []struct {
			name       string
			want, have float64
		}{
			{"inclination", es.InclinationDeg, got.InclinationDeg},
			{"raan", es.RAANDeg, got.RAANDeg},
			{"argp", es.ArgPerigeeDeg, got.ArgPerigeeDeg},
			{"mean anomaly", es.MeanAnomalyDeg, got.MeanAnomalyDeg},
		}
		for _, a := range angular {
			if math.Abs(a.want-a.have) > 1e-4 {
				t.Errorf("%s: encoded %.6f, decoded %.6f", a.name, a.want, a.have)
			}
		}
		if math.Abs(es.MeanMotionRevPerDay-got.MeanMotionRevPerDay) > 1e-6 {
			t.Errorf("mean motion: encoded %.8f, decoded %.8f", es.MeanMotionRevPerDay, got.MeanMotionRevPerDay)
		}
		if math.Abs(es.Eccentricity-got.Eccentricity) > 5e-8 {
			t.Errorf("eccentricity: encoded %.7f, decoded %.7f", es.Eccentricity, got.Eccentricity)
		}
		if got.CatalogNumber != es.CatalogNumber {
			t.Errorf("catalog number: encoded %d, decoded %d", es.CatalogNumber, got.CatalogNumber)
		}
		if got.DragTerm != es.DragTerm {
			t.Errorf("drag term: encoded %q, decoded %q", es.DragTerm, got.DragTerm)
		}
		if dt := got.Epoch.Sub(es.Epoch); dt > time.Second || dt < -time.Second {
			t.Errorf("epoch drifted by %v through the round trip", dt)
		}
	}
}

func TestDecodeAcceptsExternalRecord(t *testing.T) {
	line1 := "1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9993"
	line2 := "2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257767"

	es, err := Decode(line1, line2)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if es.CatalogNumber != 25544 {
		t.Errorf("catalog number = %d, want 25544", es.CatalogNumber)
	}
	if math.Abs(es.InclinationDeg-51.6459) > 1e-4 {
		t.Errorf("inclination = %.4f, want 51.6459", es.InclinationDeg)
	}
	if math.Abs(es.MeanMotionRevPerDay-15.49370953) > 1e-6 {
		t.Errorf("mean motion = %.8f, want 15.49370953", es.MeanMotionRevPerDay)
	}
	// ISS mean motion implies roughly a 420 km shell under the circular-orbit
	// inversion used here.
	if es.AltitudeKm < 350 || es.AltitudeKm > 480 {
		t.Errorf("derived altitude = %.1f km, want a LEO shell near 420 km", es.AltitudeKm)
	}
}

func TestValidateLinesRejectsCorruption(t *testing.T) {
	line1, line2, err := Encode(testElementSet())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	bad := []byte(line2)
	// Flip one digit inside the inclination field; the checksum must notice.
	if bad[10] == '9' {
		bad[10] = '1'
	} else {
		bad[10]++
	}
	if err := ValidateLines(line1, string(bad)); err == nil {
		t.Fatal("ValidateLines accepted a corrupted line")
	}

	if err := ValidateLines(line1[:40], line2); err == nil {
		t.Fatal("ValidateLines accepted a truncated line")
	}
}

func TestMeanMotionFromAltitude(t *testing.T) {
	// Direct Kepler check at 550 km: a = 6921 km, period ~5730 s.
	mm, err := MeanMotionFromAltitude(550)
	if err != nil {
		t.Fatalf("MeanMotionFromAltitude: %v", err)
	}
	if math.Abs(mm-15.078) > 0.05 {
		t.Fatalf("mean motion at 550 km = %.4f rev/day, want 15.078 +/- 0.05", mm)
	}

	alt, err := AltitudeFromMeanMotion(mm)
	if err != nil {
		t.Fatalf("AltitudeFromMeanMotion: %v", err)
	}
	if math.Abs(alt-550) > 0.01 {
		t.Fatalf("inverse altitude = %.4f km, want 550", alt)
	}
}

func TestMeanMotionRejectsNonPhysicalAltitude(t *testing.T) {
	if _, err := MeanMotionFromAltitude(-7000); err == nil {
		t.Fatal("expected error for altitude below Earth's centre")
	}
	var cfgErr *model.ConfigError
	_, err := MeanMotionFromAltitude(-EarthRadiusKm)
	if err == nil {
		t.Fatal("expected error at -EarthRadiusKm")
	}
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type %T, want *model.ConfigError", err)
	}
}
