package core

import (
	"sort"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// DetectProximity flags every unordered satellite pair closer than
// thresholdKm in the given position snapshot. Each pair is evaluated exactly
// once; results are ordered by satellite name for determinism. O(n²) in the
// snapshot size, which is fine for the fleet scales this engine runs.
func DetectProximity(positions map[string]Vec3, thresholdKm float64) []model.ProximityEvent {
	if len(positions) < 2 {
		return nil
	}

	names := make([]string, 0, len(positions))
	for name := range positions {
		names = append(names, name)
	}
	sort.Strings(names)

	var events []model.ProximityEvent
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			d := positions[names[i]].DistanceTo(positions[names[j]])
			if d < thresholdKm {
				events = append(events, model.ProximityEvent{
					IDA:        names[i],
					IDB:        names[j],
					DistanceKm: d,
				})
			}
		}
	}
	return events
}
