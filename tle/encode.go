// Package tle encodes and decodes orbital element sets to and from the
// legacy two-line fixed-width record format, and synthesizes randomized,
// physically plausible LEO element sets.
package tle

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// Physical constants shared by the codec and the propagation layer.
const (
	// EarthRadiusKm is the mean Earth radius.
	EarthRadiusKm = 6371.0
	// EarthGM is Earth's gravitational parameter in km³/s².
	EarthGM = 398600.4418
)

// LineLength is the fixed width of an encoded record line, checksum included.
const LineLength = 69

// Checksum computes the record checksum over the first 68 columns of a line:
// the sum of all digit characters plus one per '-' character, mod 10.
// Encoder and validators must agree on this exact definition.
func Checksum(line string) int {
	end := len(line)
	if end > LineLength-1 {
		end = LineLength - 1
	}
	total := 0
	for _, ch := range line[:end] {
		switch {
		case ch >= '0' && ch <= '9':
			total += int(ch - '0')
		case ch == '-':
			total++
		}
	}
	return total % 10
}

// MeanMotionFromAltitude derives mean motion in revolutions per day from a
// circular orbit at the given altitude using Kepler's third law.
func MeanMotionFromAltitude(altitudeKm float64) (float64, error) {
	if altitudeKm <= -EarthRadiusKm {
		return 0, &model.ConfigError{
			Reason: fmt.Sprintf("altitude %.1f km is below the Earth's centre", altitudeKm),
		}
	}
	a := EarthRadiusKm + altitudeKm
	periodS := 2.0 * math.Pi * math.Sqrt(a*a*a/EarthGM)
	return 86400.0 / periodS, nil
}

// AltitudeFromMeanMotion is the inverse derivation, used when reconstructing
// an element set from an encoded record.
func AltitudeFromMeanMotion(revPerDay float64) (float64, error) {
	if revPerDay <= 0 {
		return 0, &model.ConfigError{
			Reason: fmt.Sprintf("non-physical mean motion %.8f rev/day", revPerDay),
		}
	}
	periodS := 86400.0 / revPerDay
	a := math.Cbrt(EarthGM * math.Pow(periodS/(2.0*math.Pi), 2))
	return a - EarthRadiusKm, nil
}

// DayOfYearFraction returns the 1-based day-of-year plus fractional day for
// the record epoch field.
func DayOfYearFraction(t time.Time) float64 {
	yearStart := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	return 1.0 + t.Sub(yearStart).Seconds()/86400.0
}

// Encode formats an element set into the two fixed-width record lines,
// appending a checksum digit to each. Both lines are exactly 69 characters.
func Encode(es model.ElementSet) (line1, line2 string, err error) {
	if err := es.Validate(); err != nil {
		return "", "", err
	}

	epoch := es.Epoch.UTC()
	yy := epoch.Year() % 100
	dayFrac := DayOfYearFraction(epoch)

	drag := es.DragTerm
	if drag == "" {
		drag = " 00000-0"
	}
	if len(drag) != 8 {
		return "", "", &model.ConfigError{
			Satellite: fmt.Sprintf("%05d", es.CatalogNumber),
			Reason:    fmt.Sprintf("drag term %q is not 8 columns wide", es.DragTerm),
		}
	}

	class := es.Classification
	if class == 0 {
		class = 'U'
	}

	// International designator is synthesized from the epoch year and catalog
	// number; the simulation has no real launch records to reference.
	intl := fmt.Sprintf("%02d%03d%-3s", yy, es.CatalogNumber%999+1, "A")

	body1 := fmt.Sprintf("1 %05d%c %-8s %02d%012.8f %10s %8s %8s 0 %4d",
		es.CatalogNumber, class, intl, yy, dayFrac,
		".00000000", "00000-0", drag, es.ElementSetNum)
	line1 = body1 + strconv.Itoa(Checksum(body1))

	// Eccentricity is written as a 7-digit fraction with the leading "0."
	// implied, e.g. 0.0001230 -> "0001230".
	eccStr := fmt.Sprintf("%.7f", es.Eccentricity)[2:]

	body2 := fmt.Sprintf("2 %05d %8.4f %8.4f %s %8.4f %8.4f %11.8f%5d",
		es.CatalogNumber, es.InclinationDeg, es.RAANDeg, eccStr,
		es.ArgPerigeeDeg, es.MeanAnomalyDeg, es.MeanMotionRevPerDay, es.RevNumber)
	line2 = body2 + strconv.Itoa(Checksum(body2))

	if len(line1) != LineLength || len(line2) != LineLength {
		return "", "", &model.ConfigError{
			Satellite: fmt.Sprintf("%05d", es.CatalogNumber),
			Reason:    fmt.Sprintf("encoded lines are %d/%d columns, want %d", len(line1), len(line2), LineLength),
		}
	}
	return line1, line2, nil
}

// Decode is the inverse parse of Encode. It also accepts records produced by
// external tooling as long as the fixed columns match the convention.
func Decode(line1, line2 string) (model.ElementSet, error) {
	var es model.ElementSet

	if err := ValidateLines(line1, line2); err != nil {
		return es, err
	}

	catNum, err := parseInt(line1[2:7], "catalog number")
	if err != nil {
		return es, err
	}
	es.CatalogNumber = catNum
	es.Classification = line1[7]

	yy, err := parseInt(line1[18:20], "epoch year")
	if err != nil {
		return es, err
	}
	dayFrac, err := parseFloat(line1[20:32], "epoch day")
	if err != nil {
		return es, err
	}
	year := 2000 + yy
	if yy >= 57 { // two-digit year convention splits at 1957
		year = 1900 + yy
	}
	yearStart := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	es.Epoch = yearStart.Add(time.Duration((dayFrac - 1.0) * 86400.0 * float64(time.Second)))

	es.DragTerm = line1[53:61]
	if elset, err := parseInt(line1[64:68], "element set number"); err == nil {
		es.ElementSetNum = elset
	}

	if es.InclinationDeg, err = parseFloat(line2[8:16], "inclination"); err != nil {
		return es, err
	}
	if es.RAANDeg, err = parseFloat(line2[17:25], "raan"); err != nil {
		return es, err
	}
	if es.Eccentricity, err = parseFloat("0."+strings.TrimSpace(line2[26:33]), "eccentricity"); err != nil {
		return es, err
	}
	if es.ArgPerigeeDeg, err = parseFloat(line2[34:42], "argument of perigee"); err != nil {
		return es, err
	}
	if es.MeanAnomalyDeg, err = parseFloat(line2[43:51], "mean anomaly"); err != nil {
		return es, err
	}
	if es.MeanMotionRevPerDay, err = parseFloat(line2[52:63], "mean motion"); err != nil {
		return es, err
	}
	if rev, err := parseInt(line2[63:68], "revolution number"); err == nil {
		es.RevNumber = rev
	}

	if es.AltitudeKm, err = AltitudeFromMeanMotion(es.MeanMotionRevPerDay); err != nil {
		return es, err
	}
	return es, nil
}

// ValidateLines checks structural validity of a record pair: length, record
// markers, and the checksum digit on each line.
func ValidateLines(line1, line2 string) error {
	for i, line := range []string{line1, line2} {
		if len(line) != LineLength {
			return fmt.Errorf("line %d is %d columns, want %d", i+1, len(line), LineLength)
		}
		want := Checksum(line)
		got := int(line[LineLength-1] - '0')
		if got != want {
			return fmt.Errorf("line %d checksum mismatch: record has %d, computed %d", i+1, got, want)
		}
	}
	if line1[0] != '1' {
		return fmt.Errorf("line 1 record marker is %q, want '1'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line 2 record marker is %q, want '2'", line2[0])
	}
	return nil
}

func parseInt(s, field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return v, nil
}

func parseFloat(s, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return v, nil
}
