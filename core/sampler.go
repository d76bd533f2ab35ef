package core

import (
	"fmt"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// MinPointsPerOrbit is the sampling density floor: at least this many points
// per orbital period, roughly one every two degrees of arc.
const MinPointsPerOrbit = 180

// ChooseStepSeconds picks a sampling interval for a trajectory spanning
// spanS seconds of an orbit with period periodS. Starting from baseStepS, the
// step is clamped so the closed-interval point count stays within
// [minPoints, maxPoints], then shrunk further if the per-orbit density floor
// would be violated. The density floor wins over maxPoints.
func ChooseStepSeconds(periodS, spanS, baseStepS float64, minPoints, maxPoints int) float64 {
	step := baseStepS
	if step <= 0 {
		step = spanS / float64(minPoints)
	}

	n := spanS / step
	if n < float64(minPoints) {
		step = spanS / float64(minPoints)
	} else if n > float64(maxPoints) {
		step = spanS / float64(maxPoints)
	}

	if periodS > 0 && periodS/step < MinPointsPerOrbit {
		step = periodS / MinPointsPerOrbit
	}
	return step
}

// GeneratePoints samples the satellite's trajectory over the closed interval
// [start, end] at stepS-second spacing, inclusive of both endpoints. The
// sequence is ordered, finite, and reproducible for identical inputs.
func (p *Propagator) GeneratePoints(start, end time.Time, stepS float64) ([]model.TrajectoryPoint, error) {
	if stepS <= 0 {
		return nil, fmt.Errorf("non-positive step %.3fs for %s", stepS, p.name)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("trajectory interval ends before it starts for %s", p.name)
	}

	capHint := int(end.Sub(start).Seconds()/stepS) + 1
	points := make([]model.TrajectoryPoint, 0, capHint)

	for i := 0; ; i++ {
		offset := time.Duration(float64(i) * stepS * float64(time.Second))
		t := start.Add(offset)
		if t.After(end) {
			break
		}
		pt, err := p.At(t)
		if err != nil {
			return nil, err
		}
		pt.ElapsedSeconds = offset.Seconds()
		points = append(points, pt)
	}
	return points, nil
}

// FullOrbitTrajectory samples exactly one orbital period starting at the
// element set epoch, targeting the given point count.
func (p *Propagator) FullOrbitTrajectory(epoch time.Time, periodS float64, points int) ([]model.TrajectoryPoint, error) {
	if periodS <= 0 {
		return nil, fmt.Errorf("non-positive orbital period %.1fs for %s", periodS, p.name)
	}
	if points < 2 {
		points = 2
	}
	step := ChooseStepSeconds(periodS, periodS, periodS/float64(points), points, points)
	end := epoch.Add(time.Duration(periodS * float64(time.Second)))
	return p.GeneratePoints(epoch, end, step)
}
