package core

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/store"
	"github.com/signalsfoundry/leo-orbit-sim/timectrl"
)

var testStart = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SpanHours = 2
	cfg.StepSeconds = 60
	cfg.FullOrbitPoints = 200
	cfg.Seed = 7
	return cfg
}

func newTestOrchestrator(cfg Config, ds *store.DataStore) *Orchestrator {
	o := NewOrchestrator(cfg, ds, logging.Noop())
	o.SetClock(timectrl.Fixed(testStart))
	return o
}

type countingMetrics struct {
	mu           sync.Mutex
	propagations int
	steps        int
	failures     int
	corrections  int
	satellites   int
	states       []RunState
}

func (m *countingMetrics) RecordPropagation(time.Duration, bool) {
	m.mu.Lock()
	m.propagations++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordStep(int) { m.mu.Lock(); m.steps++; m.mu.Unlock() }
func (m *countingMetrics) RecordStepFailure(string) {
	m.mu.Lock()
	m.failures++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordDriftCorrection(string) {
	m.mu.Lock()
	m.corrections++
	m.mu.Unlock()
}
func (m *countingMetrics) SetSatelliteCount(n int) { m.mu.Lock(); m.satellites = n; m.mu.Unlock() }
func (m *countingMetrics) SetRunState(s RunState) {
	m.mu.Lock()
	m.states = append(m.states, s)
	m.mu.Unlock()
}

type memoryCache struct {
	mu     sync.Mutex
	elems  *CachedElements
	loads  int
	stores int
}

func (c *memoryCache) Load(context.Context) (*CachedElements, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	if c.elems == nil {
		return nil, ErrCacheMiss
	}
	return c.elems, nil
}

func (c *memoryCache) Store(_ context.Context, elems *CachedElements) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores++
	c.elems = elems
	return nil
}

func TestOrchestratorRun(t *testing.T) {
	cfg := testConfig()
	ds := store.New()
	o := newTestOrchestrator(cfg, ds)
	metrics := &countingMetrics{}
	o.SetMetrics(metrics)

	if err := o.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	status := o.Status()
	if status.State != StateDone {
		t.Fatalf("status = %v (%s), want done", status.State, status.Err)
	}
	if status.StartedAt.IsZero() || status.FinishedAt.Before(status.StartedAt) {
		t.Errorf("status timestamps inconsistent: %+v", status)
	}

	sats := ds.ListSatellites()
	if len(sats) != 2 || sats[0].Config.Name != "CRTS1" || sats[1].Config.Name != "BULLDOG" {
		t.Fatalf("satellites = %+v, want [CRTS1 BULLDOG]", sats)
	}

	// A 2-hour span at 60-second steps on a closed grid is 121 ticks.
	for _, sat := range sats {
		recs, err := ds.Records(sat.Config.Name)
		if err != nil {
			t.Fatalf("Records(%s): %v", sat.Config.Name, err)
		}
		if len(recs) != 121 {
			t.Fatalf("%s: %d records, want 121", sat.Config.Name, len(recs))
		}
		for i, rec := range recs {
			if want := float64(i * 60); math.Abs(rec.ElapsedSeconds-want) > 1e-9 {
				t.Fatalf("%s record %d elapsed = %v, want %v", sat.Config.Name, i, rec.ElapsedSeconds, want)
			}
			if dev := math.Abs(rec.AltitudeKm - sat.Config.AltitudeKm); dev > cfg.DriftToleranceKm+1e-6 {
				t.Fatalf("%s record %d altitude %.1f deviates %.1fkm from target", sat.Config.Name, i, rec.AltitudeKm, dev)
			}
		}
		if recs[len(recs)-1].BatteryPct >= recs[0].BatteryPct {
			t.Errorf("%s battery did not drain over the run", sat.Config.Name)
		}

		traj, err := ds.Trajectory(sat.Config.Name)
		if err != nil {
			t.Fatalf("Trajectory(%s): %v", sat.Config.Name, err)
		}
		if len(traj) < cfg.FullOrbitPoints {
			t.Errorf("%s trajectory has %d points, want at least %d", sat.Config.Name, len(traj), cfg.FullOrbitPoints)
		}
	}

	if metrics.satellites != 2 {
		t.Errorf("satellite count metric = %d, want 2", metrics.satellites)
	}
	if metrics.steps != 121 {
		t.Errorf("step metric = %d, want 121", metrics.steps)
	}
	if metrics.propagations == 0 {
		t.Error("no propagations recorded")
	}
	if len(metrics.states) < 2 ||
		metrics.states[0] != StateRunning ||
		metrics.states[len(metrics.states)-1] != StateDone {
		t.Errorf("run state sequence = %v", metrics.states)
	}
}

func TestOrchestratorRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.StepSeconds = 0
	o := newTestOrchestrator(cfg, store.New())
	if err := o.Run(context.Background()); err == nil {
		t.Fatal("zero step accepted")
	}
	if o.Status().State != StateFailed {
		t.Errorf("status = %v, want failed", o.Status().State)
	}
}

func TestOrchestratorElementCacheRoundTrip(t *testing.T) {
	cfg := testConfig()
	cfg.SpanHours = 0.05 // keep the second run short
	cache := &memoryCache{}

	first := store.New()
	o1 := newTestOrchestrator(cfg, first)
	o1.SetCache(cache)
	if err := o1.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if cache.stores != 1 {
		t.Fatalf("cache stores = %d, want 1", cache.stores)
	}

	second := store.New()
	o2 := newTestOrchestrator(cfg, second)
	o2.SetCache(cache)
	if err := o2.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if cache.stores != 1 {
		t.Errorf("cache hit still re-stored (stores = %d)", cache.stores)
	}

	for _, name := range []string{"CRTS1", "BULLDOG"} {
		a, err := first.Satellite(name)
		if err != nil {
			t.Fatalf("first store %s: %v", name, err)
		}
		b, err := second.Satellite(name)
		if err != nil {
			t.Fatalf("second store %s: %v", name, err)
		}
		if a.Line1 != b.Line1 || a.Line2 != b.Line2 {
			t.Errorf("%s element record changed across cached runs", name)
		}
	}
}

func TestOrchestratorBackgroundRun(t *testing.T) {
	cfg := testConfig()
	cfg.SpanHours = 0.05
	o := newTestOrchestrator(cfg, store.New())

	if err := o.StartBackground(context.Background()); err != nil {
		t.Fatalf("StartBackground: %v", err)
	}
	if err := o.StartBackground(context.Background()); !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("second StartBackground = %v, want ErrRunInProgress", err)
	}

	deadline := time.After(30 * time.Second)
	for {
		status := o.Status()
		if status.State == StateDone {
			break
		}
		if status.State == StateFailed {
			t.Fatalf("background run failed: %s", status.Err)
		}
		select {
		case <-deadline:
			t.Fatalf("background run did not finish, status %v", status.State)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestOrchestratorRandomizedFleetStaysInEnvelope(t *testing.T) {
	cfg := testConfig()
	cfg.RandomizeOrbits = true
	o := newTestOrchestrator(cfg, store.New())
	for trial := 0; trial < 50; trial++ {
		for _, sat := range o.fleet() {
			if sat.AltitudeKm < 400 || sat.AltitudeKm > 700 {
				t.Fatalf("randomized altitude %.1f outside [400, 700]", sat.AltitudeKm)
			}
			if sat.InclinationDeg < 30 || sat.InclinationDeg > 85 {
				t.Fatalf("randomized inclination %.2f outside [30, 85]", sat.InclinationDeg)
			}
		}
	}
}
