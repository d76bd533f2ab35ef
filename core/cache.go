package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// CachedSatellite is one satellite's persisted element set together with the
// encoded lines it produced, so a cache hit skips both synthesis and
// re-encoding.
type CachedSatellite struct {
	Config   model.SatelliteConfig `json:"config"`
	Elements model.ElementSet      `json:"elements"`
	Line1    string                `json:"line1"`
	Line2    string                `json:"line2"`
}

// CachedElements is the unit an ElementCache stores: a whole fleet snapshot.
type CachedElements struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Satellites  []CachedSatellite `json:"satellites"`
}

// ElementCache persists synthesized element sets between runs. Load returns
// ErrCacheMiss when nothing usable is stored; any other error is treated as
// a miss by the orchestrator but logged.
type ElementCache interface {
	Load(ctx context.Context) (*CachedElements, error)
	Store(ctx context.Context, elems *CachedElements) error
}

// covers reports whether the snapshot contains an entry for every configured
// satellite with matching geometry. A fleet or geometry change invalidates
// the cache.
func (c *CachedElements) covers(fleet []model.SatelliteConfig) bool {
	if c == nil {
		return false
	}
	byName := make(map[string]CachedSatellite, len(c.Satellites))
	for _, s := range c.Satellites {
		byName[s.Config.Name] = s
	}
	for _, want := range fleet {
		got, ok := byName[want.Name]
		if !ok {
			return false
		}
		if got.Config.AltitudeKm != want.AltitudeKm || got.Config.InclinationDeg != want.InclinationDeg {
			return false
		}
	}
	return true
}
