package core

import (
	"context"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/model"
	"github.com/signalsfoundry/leo-orbit-sim/tle"
)

// Sanity window for propagated position magnitudes. Anything outside is a
// propagation failure, not a real orbit.
const (
	minSaneRadiusKm = 6200.0
	maxSaneRadiusKm = 50000.0
)

// Propagator computes trajectory points for one satellite from its encoded
// element record. The SGP4 model itself is the external primitive; this type
// only derives altitude, speed, and ground track from its output, and applies
// the drift tolerance band.
type Propagator struct {
	name        string
	targetAltKm float64
	sat         satellite.Satellite
	log         logging.Logger
}

// NewPropagator initializes the SGP4 model from an encoded record pair.
// The record is structurally validated first: the underlying library is not
// defensive about malformed input.
func NewPropagator(name, line1, line2 string, targetAltKm float64, log logging.Logger) (*Propagator, error) {
	if log == nil {
		log = logging.Noop()
	}
	if err := tle.ValidateLines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid element record for %s: %w", name, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for %s: code=%d %s", name, sat.Error, sat.ErrorStr)
	}

	return &Propagator{
		name:        name,
		targetAltKm: targetAltKm,
		sat:         sat,
		log:         log,
	}, nil
}

// Name returns the satellite identifier this propagator serves.
func (p *Propagator) Name() string { return p.name }

// TargetAltitudeKm returns the configured target altitude.
func (p *Propagator) TargetAltitudeKm() float64 { return p.targetAltKm }

// At propagates the satellite to the given instant and derives the full
// trajectory point: inertial position/velocity, altitude, speed, and ground
// track. ElapsedSeconds is left at zero; the caller owns the run timeline.
func (p *Propagator) At(t time.Time) (model.TrajectoryPoint, error) {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, velECI := satellite.Propagate(p.sat, year, int(month), day, hour, min, sec)
	pos := Vec3{X: posECI.X, Y: posECI.Y, Z: posECI.Z}
	vel := Vec3{X: velECI.X, Y: velECI.Y, Z: velECI.Z}

	if hasNaN(pos) || hasNaN(vel) {
		return model.TrajectoryPoint{}, fmt.Errorf("sgp4 output for %s at %s is NaN", p.name, t.Format(time.RFC3339))
	}
	if r := pos.Norm(); r < minSaneRadiusKm || r > maxSaneRadiusKm {
		return model.TrajectoryPoint{}, fmt.Errorf("sgp4 output for %s at %s has magnitude %.1f km", p.name, t.Format(time.RFC3339), r)
	}

	gmst := satellite.GSTimeFromDate(year, int(month), day, hour, min, sec)
	ecef := satellite.ECIToECEF(posECI, gmst)
	lat, lon := groundTrack(Vec3{X: ecef.X, Y: ecef.Y, Z: ecef.Z})

	return model.TrajectoryPoint{
		Position:     pos.Array(),
		Velocity:     vel.Array(),
		AltitudeKm:   pos.AltitudeKm(),
		SpeedKmS:     vel.Norm(),
		LatitudeDeg:  lat,
		LongitudeDeg: lon,
		Timestamp:    t,
	}, nil
}

// CorrectAltitudeDrift rescales the point's position radially onto the target
// shell when the propagated altitude has drifted beyond toleranceKm. This is
// numerical-drift compensation only: velocity and ground track are untouched
// and the correction is reported, never hidden.
func (p *Propagator) CorrectAltitudeDrift(pt model.TrajectoryPoint, toleranceKm float64) (model.TrajectoryPoint, bool) {
	dev := pt.AltitudeKm - p.targetAltKm
	if math.Abs(dev) <= toleranceKm {
		return pt, false
	}

	pos := FromArray(pt.Position)
	r := pos.Norm()
	if r == 0 {
		return pt, false
	}

	scale := (EarthRadiusKm + p.targetAltKm) / r
	corrected := pos.Scale(scale)

	p.log.Warn(context.Background(), "altitude drift corrected",
		logging.String("satellite", p.name),
		logging.Float64("altitude_km", pt.AltitudeKm),
		logging.Float64("target_km", p.targetAltKm),
		logging.Float64("deviation_km", dev),
	)

	pt.Position = corrected.Array()
	pt.AltitudeKm = corrected.AltitudeKm()
	return pt, true
}

// groundTrack derives the spherical sub-point latitude/longitude in degrees
// from an Earth-fixed position.
func groundTrack(ecef Vec3) (latDeg, lonDeg float64) {
	r := ecef.Norm()
	if r == 0 {
		return 0, 0
	}
	latDeg = math.Asin(ecef.Z/r) * 180.0 / math.Pi
	lonDeg = math.Atan2(ecef.Y, ecef.X) * 180.0 / math.Pi
	return latDeg, lonDeg
}

func hasNaN(v Vec3) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) ||
		math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0)
}
