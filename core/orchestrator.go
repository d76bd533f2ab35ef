package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/model"
	"github.com/signalsfoundry/leo-orbit-sim/store"
	"github.com/signalsfoundry/leo-orbit-sim/timectrl"
	"github.com/signalsfoundry/leo-orbit-sim/tle"
)

const tracerName = "leo-orbit-sim/core"

// Orchestrator runs the two-phase simulation: a setup phase that synthesizes
// element sets and full-orbit trajectories, then a stepped phase that walks
// the tick grid propagating every satellite, detecting close approaches, and
// evolving telemetry. Output lands in the DataStore.
type Orchestrator struct {
	cfg     Config
	ds      *store.DataStore
	log     logging.Logger
	metrics MetricsRecorder
	cache   ElementCache
	clock   timectrl.SimClock
	tracer  trace.Tracer
	rng     *rand.Rand

	mu      sync.Mutex
	running bool
	status  RunStatus
}

// satRun bundles everything one satellite needs during the stepped phase.
type satRun struct {
	cfg   model.SatelliteConfig
	elems model.ElementSet
	prop  *Propagator
	tel   *TelemetrySynthesizer
}

// NewOrchestrator constructs an orchestrator writing into ds. A nil logger
// is replaced with a no-op one.
func NewOrchestrator(cfg Config, ds *store.DataStore, log logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.Noop()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Orchestrator{
		cfg:     cfg,
		ds:      ds,
		log:     log,
		metrics: noopMetrics{},
		clock:   timectrl.Wall{},
		tracer:  otel.Tracer(tracerName),
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// SetMetrics wires a metrics recorder. Must be called before Run.
func (o *Orchestrator) SetMetrics(m MetricsRecorder) {
	if m != nil {
		o.metrics = m
	}
}

// SetCache wires an element set cache. Must be called before Run.
func (o *Orchestrator) SetCache(c ElementCache) { o.cache = c }

// SetClock overrides the start-time source. Must be called before Run.
func (o *Orchestrator) SetClock(c timectrl.SimClock) {
	if c != nil {
		o.clock = c
	}
}

// Status returns a snapshot of the run lifecycle.
func (o *Orchestrator) Status() RunStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.status
}

// Run executes a full simulation synchronously. It returns ErrRunInProgress
// if another run is active.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.begin(); err != nil {
		return err
	}
	err := o.run(ctx)
	o.finish(err)
	return err
}

// StartBackground launches a run in a goroutine and returns immediately.
// Progress is observable through Status. The run is not cancellable once
// started; the passed context only scopes the setup of the goroutine's
// tracing and logging.
func (o *Orchestrator) StartBackground(ctx context.Context) error {
	if err := o.begin(); err != nil {
		return err
	}
	go func() {
		// Detach from the caller's context so an aborted HTTP request
		// does not tear down the run.
		runCtx := context.WithoutCancel(ctx)
		err := o.run(runCtx)
		o.finish(err)
	}()
	return nil
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return ErrRunInProgress
	}
	o.running = true
	o.status = RunStatus{State: StateRunning, StartedAt: time.Now().UTC()}
	o.metrics.SetRunState(StateRunning)
	return nil
}

func (o *Orchestrator) finish(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.running = false
	o.status.FinishedAt = time.Now().UTC()
	if err != nil {
		o.status.State = StateFailed
		o.status.Err = err.Error()
	} else {
		o.status.State = StateDone
	}
	o.metrics.SetRunState(o.status.State)
}

func (o *Orchestrator) run(ctx context.Context) error {
	ctx, span := o.tracer.Start(ctx, "simulation.run",
		trace.WithAttributes(
			attribute.Int("satellites", len(o.cfg.Satellites)),
			attribute.Float64("span_hours", o.cfg.SpanHours),
			attribute.Float64("step_seconds", o.cfg.StepSeconds),
		))
	defer span.End()

	if err := o.cfg.Validate(); err != nil {
		return err
	}
	sats, err := o.setup(ctx)
	if err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	if err := o.stepped(ctx, sats); err != nil {
		return fmt.Errorf("stepped run: %w", err)
	}
	return nil
}

// setup synthesizes (or restores from cache) element sets for the fleet,
// builds a propagator per satellite, validates initial geometry, and stores
// one full-orbit visualization trajectory each.
func (o *Orchestrator) setup(ctx context.Context) ([]*satRun, error) {
	ctx, span := o.tracer.Start(ctx, "simulation.setup")
	defer span.End()

	o.ds.Clear()
	fleet := o.fleet()
	now := o.clock.Now().UTC()

	cached := o.loadCache(ctx, fleet)
	fromCache := cached != nil

	sats := make([]*satRun, 0, len(fleet))
	snapshot := &CachedElements{GeneratedAt: now}
	for i, cfg := range fleet {
		var (
			elems        model.ElementSet
			line1, line2 string
			err          error
		)
		if fromCache {
			cs := cached.find(cfg.Name)
			elems, line1, line2 = cs.Elements, cs.Line1, cs.Line2
		} else {
			elems, err = tle.NewSynthesizer(o.satSeed(i)).GenerateFor(cfg, now)
			if err != nil {
				return nil, err
			}
			line1, line2, err = tle.Encode(elems)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", cfg.Name, err)
			}
		}

		prop, err := NewPropagator(cfg.Name, line1, line2, cfg.AltitudeKm, o.log)
		if err != nil {
			return nil, err
		}

		began := time.Now()
		initial, err := prop.At(elems.Epoch)
		o.metrics.RecordPropagation(time.Since(began), err == nil)
		if err != nil {
			return nil, fmt.Errorf("initial propagation %s: %w", cfg.Name, err)
		}
		if initial.AltitudeKm < o.cfg.MinViableAltitudeKm {
			return nil, &model.ConfigError{
				Satellite: cfg.Name,
				Reason: fmt.Sprintf("initial altitude %.1fkm below viable floor %.1fkm",
					initial.AltitudeKm, o.cfg.MinViableAltitudeKm),
			}
		}
		if dev := initial.AltitudeKm - cfg.AltitudeKm; dev > o.cfg.DriftToleranceKm || dev < -o.cfg.DriftToleranceKm {
			o.log.Warn(ctx, "initial altitude deviates from target",
				logging.String("satellite", cfg.Name),
				logging.Float64("altitude_km", initial.AltitudeKm),
				logging.Float64("target_km", cfg.AltitudeKm))
		}

		traj, err := prop.FullOrbitTrajectory(elems.Epoch, elems.PeriodSeconds(), o.cfg.FullOrbitPoints)
		if err != nil {
			return nil, fmt.Errorf("full-orbit trajectory %s: %w", cfg.Name, err)
		}

		if err := o.ds.AddSatellite(store.Satellite{
			Config: cfg, Elements: elems, Line1: line1, Line2: line2,
		}); err != nil {
			return nil, err
		}
		if err := o.ds.SetTrajectory(cfg.Name, traj); err != nil {
			return nil, err
		}

		sats = append(sats, &satRun{
			cfg:   cfg,
			elems: elems,
			prop:  prop,
			tel:   NewTelemetrySynthesizer(cfg.AltitudeKm, o.cfg.StepSeconds, o.satSeed(i)),
		})
		snapshot.Satellites = append(snapshot.Satellites, CachedSatellite{
			Config: cfg, Elements: elems, Line1: line1, Line2: line2,
		})
		o.log.Info(ctx, "satellite initialized",
			logging.String("satellite", cfg.Name),
			logging.Float64("altitude_km", initial.AltitudeKm),
			logging.Float64("inclination_deg", cfg.InclinationDeg),
			logging.Int("orbit_points", len(traj)))
	}

	if !fromCache && o.cache != nil {
		if err := o.cache.Store(ctx, snapshot); err != nil {
			o.log.Warn(ctx, "element set cache store failed", logging.Err(err))
		}
	}
	o.metrics.SetSatelliteCount(len(sats))
	return sats, nil
}

// stepped walks the closed tick grid. A satellite whose propagation fails at
// one tick is skipped for that tick only; the run continues.
func (o *Orchestrator) stepped(ctx context.Context, sats []*satRun) error {
	start := o.clock.Now().UTC()
	span := time.Duration(o.cfg.SpanHours * float64(time.Hour))
	step := time.Duration(o.cfg.StepSeconds * float64(time.Second))
	grid := timectrl.Grid(start, span, step)

	ctx, tspan := o.tracer.Start(ctx, "simulation.stepped",
		trace.WithAttributes(attribute.Int("ticks", len(grid))))
	defer tspan.End()

	records := make(map[string][]model.SimulationRecord, len(sats))
	for _, s := range sats {
		records[s.cfg.Name] = make([]model.SimulationRecord, 0, len(grid))
	}

	for idx, tick := range grid {
		positions := make(map[string]Vec3, len(sats))
		points := make(map[string]model.TrajectoryPoint, len(sats))

		for _, s := range sats {
			began := time.Now()
			pt, err := s.prop.At(tick)
			o.metrics.RecordPropagation(time.Since(began), err == nil)
			if err != nil {
				o.metrics.RecordStepFailure(s.cfg.Name)
				o.log.Error(ctx, "propagation step failed",
					logging.String("satellite", s.cfg.Name),
					logging.Int("step", idx),
					logging.Err(err))
				continue
			}
			pt, corrected := s.prop.CorrectAltitudeDrift(pt, o.cfg.DriftToleranceKm)
			if corrected {
				o.metrics.RecordDriftCorrection(s.cfg.Name)
			}
			pt.Timestamp = tick
			pt.ElapsedSeconds = tick.Sub(start).Seconds()
			points[s.cfg.Name] = pt
			positions[s.cfg.Name] = FromArray(pt.Position)
		}

		events := DetectProximity(positions, o.cfg.CollisionThresholdKm)
		collisions := collisionStrings(events)

		for _, s := range sats {
			pt, ok := points[s.cfg.Name]
			if !ok {
				continue
			}
			sample := s.tel.Step(idx, pt.AltitudeKm)
			anomalies := sample.Anomalies
			if pt.AltitudeKm < o.cfg.LowAltitudeKm {
				anomalies = append(anomalies, model.AnomalyLowAltitude)
			}
			records[s.cfg.Name] = append(records[s.cfg.Name], model.SimulationRecord{
				Timestamp:      pt.Timestamp,
				ElapsedSeconds: pt.ElapsedSeconds,
				Position:       pt.Position,
				Velocity:       pt.Velocity,
				AltitudeKm:     pt.AltitudeKm,
				SpeedKmS:       pt.SpeedKmS,
				LatitudeDeg:    pt.LatitudeDeg,
				LongitudeDeg:   pt.LongitudeDeg,
				Collisions:     collisions[s.cfg.Name],
				BatteryPct:     sample.BatteryPct,
				TemperatureC:   sample.TemperatureC,
				Orientation:    sample.Orientation,
				Anomalies:      anomalies,
			})
		}
		o.metrics.RecordStep(len(events))
	}

	for _, s := range sats {
		if err := o.ds.AppendRecords(s.cfg.Name, records[s.cfg.Name]); err != nil {
			return err
		}
	}
	o.log.Info(ctx, "simulation run complete",
		logging.Int("satellites", len(sats)),
		logging.Int("steps", len(grid)))
	return nil
}

// fleet returns the configured satellites, with geometry re-rolled inside
// the demonstration envelope when RandomizeOrbits is set.
func (o *Orchestrator) fleet() []model.SatelliteConfig {
	fleet := make([]model.SatelliteConfig, len(o.cfg.Satellites))
	copy(fleet, o.cfg.Satellites)
	if !o.cfg.RandomizeOrbits {
		return fleet
	}
	for i := range fleet {
		fleet[i].AltitudeKm = float64(400 + o.rng.Intn(301))
		fleet[i].InclinationDeg = 30 + o.rng.Float64()*55
	}
	return fleet
}

// loadCache returns a usable cached fleet snapshot or nil. A miss or a stale
// snapshot (fleet changed) falls through to fresh synthesis.
func (o *Orchestrator) loadCache(ctx context.Context, fleet []model.SatelliteConfig) *CachedElements {
	if o.cache == nil {
		return nil
	}
	cached, err := o.cache.Load(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			o.log.Warn(ctx, "element set cache load failed", logging.Err(err))
		}
		return nil
	}
	if !cached.covers(fleet) {
		o.log.Info(ctx, "element set cache stale, regenerating")
		return nil
	}
	o.log.Info(ctx, "element sets restored from cache",
		logging.Int("satellites", len(cached.Satellites)))
	return cached
}

func (o *Orchestrator) satSeed(i int) int64 {
	if o.cfg.Seed == 0 {
		return 0
	}
	return o.cfg.Seed + int64(i)
}

// find returns the cached entry for name. Callers check covers first.
func (c *CachedElements) find(name string) CachedSatellite {
	for _, s := range c.Satellites {
		if s.Config.Name == name {
			return s
		}
	}
	return CachedSatellite{}
}

// collisionStrings expands pairwise proximity events into the per-satellite
// human-readable form carried on records.
func collisionStrings(events []model.ProximityEvent) map[string][]string {
	if len(events) == 0 {
		return nil
	}
	out := make(map[string][]string)
	for _, ev := range events {
		out[ev.IDA] = append(out[ev.IDA], fmt.Sprintf("Collision with %s Dist=%.2fkm", ev.IDB, ev.DistanceKm))
		out[ev.IDB] = append(out[ev.IDB], fmt.Sprintf("Collision with %s Dist=%.2fkm", ev.IDA, ev.DistanceKm))
	}
	return out
}
