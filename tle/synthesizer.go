package tle

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// band is one segment of a piecewise-uniform distribution.
type band struct {
	lo, hi float64
	weight float64
}

// Altitude distribution for synthesized LEO satellites. Most operational
// LEO spacecraft sit between 400 and 800 km.
var altitudeBands = []band{
	{160, 300, 0.15},
	{300, 500, 0.30},
	{500, 800, 0.40},
	{800, 1200, 0.10},
	{1200, 2000, 0.05},
}

// Inclination distribution: polar and near-polar orbits dominate, with a
// dedicated band for sun-synchronous (~98°) missions.
var inclinationBands = []band{
	{0, 20, 0.05},
	{20, 45, 0.15},
	{45, 60, 0.20},
	{60, 80, 0.15},
	{80, 100, 0.30},
	{97, 99, 0.10},
	{100, 120, 0.05},
}

// Synthesizer generates randomized, physically plausible orbital element
// sets. Not safe for concurrent use; each caller should own its instance.
type Synthesizer struct {
	rng *rand.Rand
}

// NewSynthesizer constructs a Synthesizer. A zero seed selects a
// time-derived one.
func NewSynthesizer(seed int64) *Synthesizer {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Synthesizer{rng: rand.New(rand.NewSource(seed))}
}

// Generate produces a fully randomized element set with epoch now.
func (s *Synthesizer) Generate(now time.Time) (model.ElementSet, error) {
	alt := s.pickBand(altitudeBands)
	inc := s.pickBand(inclinationBands)
	return s.build(alt, inc, now)
}

// GenerateFor produces an element set targeting the configured altitude and
// inclination, randomizing the remaining parameters.
func (s *Synthesizer) GenerateFor(cfg model.SatelliteConfig, now time.Time) (model.ElementSet, error) {
	if err := cfg.Validate(); err != nil {
		return model.ElementSet{}, err
	}
	return s.build(cfg.AltitudeKm, cfg.InclinationDeg, now)
}

func (s *Synthesizer) build(altitudeKm, inclinationDeg float64, now time.Time) (model.ElementSet, error) {
	mm, err := MeanMotionFromAltitude(altitudeKm)
	if err != nil {
		return model.ElementSet{}, err
	}

	es := model.ElementSet{
		CatalogNumber:       10000 + s.rng.Intn(90000),
		Classification:      'U',
		ElementSetNum:       999,
		RevNumber:           1 + s.rng.Intn(5000),
		AltitudeKm:          altitudeKm,
		InclinationDeg:      inclinationDeg,
		Eccentricity:        s.eccentricityFor(altitudeKm),
		RAANDeg:             s.uniform(0, 360),
		ArgPerigeeDeg:       s.uniform(0, 360),
		MeanAnomalyDeg:      s.uniform(0, 360),
		MeanMotionRevPerDay: mm,
		Epoch:               now.UTC(),
		DragTerm:            s.dragTermFor(altitudeKm),
	}
	if err := es.Validate(); err != nil {
		return model.ElementSet{}, err
	}
	return es, nil
}

// eccentricityFor narrows the eccentricity range with altitude: lower orbits
// are circularized by atmospheric drag.
func (s *Synthesizer) eccentricityFor(altitudeKm float64) float64 {
	switch {
	case altitudeKm < 400:
		return s.uniform(0.0001, 0.003)
	case altitudeKm < 800:
		return s.uniform(0.0001, 0.01)
	default:
		return s.uniform(0.0001, 0.02)
	}
}

// dragTermFor builds the 8-column drag field. The magnitude scales inversely
// with altitude: lower orbits see denser atmosphere.
func (s *Synthesizer) dragTermFor(altitudeKm float64) string {
	expBand := -7.0
	switch {
	case altitudeKm < 400:
		expBand = -5.0
	case altitudeKm < 800:
		expBand = -6.0
	}
	val := math.Pow(10, s.uniform(expBand, expBand+1))
	return FormatDragTerm(val)
}

// FormatDragTerm renders a drag magnitude as the record's implied-decimal
// field: 0.MMMMM x 10^-E becomes " MMMMM-E".
func FormatDragTerm(val float64) string {
	if val <= 0 {
		return " 00000-0"
	}
	exp := 0
	for val < 0.1 && exp < 9 {
		val *= 10
		exp++
	}
	mantissa := int(math.Round(val * 100000))
	if mantissa > 99999 {
		mantissa = 99999
	}
	return fmt.Sprintf(" %05d-%d", mantissa, exp)
}

func (s *Synthesizer) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}

func (s *Synthesizer) pickBand(bands []band) float64 {
	r := s.rng.Float64()
	cum := 0.0
	for _, b := range bands {
		cum += b.weight
		if r <= cum {
			return s.uniform(b.lo, b.hi)
		}
	}
	last := bands[len(bands)-1]
	return s.uniform(last.lo, last.hi)
}
