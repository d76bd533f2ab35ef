package core

import (
	"math"

	"github.com/signalsfoundry/leo-orbit-sim/tle"
)

// EarthRadiusKm is the mean Earth radius used for all altitude and ground
// track derivations (kilometres).
const EarthRadiusKm = tle.EarthRadiusKm

// Vec3 is an inertial-frame vector in kilometres (or km/s for velocities).
type Vec3 struct {
	X, Y, Z float64
}

// FromArray builds a Vec3 from a fixed-size coordinate array.
func FromArray(a [3]float64) Vec3 {
	return Vec3{X: a[0], Y: a[1], Z: a[2]}
}

// Array returns the vector as a fixed-size coordinate array.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns the vector multiplied by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// AltitudeKm returns the height of the point above the mean Earth sphere.
func (v Vec3) AltitudeKm() float64 {
	return v.Norm() - EarthRadiusKm
}
