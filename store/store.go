// Package store is the in-memory, thread-safe repository for simulation
// output: the satellite registry, per-satellite visualization trajectories,
// and the timestep record history. Subscribers (the telemetry sink, for
// example) are notified as records land.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/leo-orbit-sim/model"
)

// ErrNoData is returned when a satellite is unknown or has produced no
// output yet.
var ErrNoData = errors.New("no data for satellite")

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventSatelliteAdded EventType = iota
	EventTrajectorySet
	EventRecordsAppended
)

// Event is emitted to subscribers when the store changes.
type Event struct {
	Type      EventType
	Satellite string
	// Records holds the newly appended records for EventRecordsAppended.
	Records []model.SimulationRecord
}

// Satellite is the registry entry for one tracked spacecraft: its configured
// geometry, the synthesized element set, and the encoded lines.
type Satellite struct {
	Config   model.SatelliteConfig `json:"config"`
	Elements model.ElementSet      `json:"elements"`
	Line1    string                `json:"line1"`
	Line2    string                `json:"line2"`
}

// Summary reports store contents for the status endpoint.
type Summary struct {
	SatelliteCount   int            `json:"satellite_count"`
	RecordCounts     map[string]int `json:"record_counts"`
	TrajectoryCounts map[string]int `json:"trajectory_counts"`
}

// DataStore is the in-memory repository. All methods are safe for
// concurrent use.
type DataStore struct {
	mu sync.RWMutex

	order        []string
	satellites   map[string]Satellite
	trajectories map[string][]model.TrajectoryPoint
	records      map[string][]model.SimulationRecord

	subs      []subscriber
	nextSubID int
}

type subscriber struct {
	id int
	fn func(Event)
}

// New constructs an empty DataStore.
func New() *DataStore {
	return &DataStore{
		satellites:   make(map[string]Satellite),
		trajectories: make(map[string][]model.TrajectoryPoint),
		records:      make(map[string][]model.SimulationRecord),
	}
}

// AddSatellite registers a satellite. It returns an error if the name is
// already registered.
func (ds *DataStore) AddSatellite(s Satellite) error {
	ds.mu.Lock()
	if _, exists := ds.satellites[s.Config.Name]; exists {
		ds.mu.Unlock()
		return fmt.Errorf("satellite %q already registered", s.Config.Name)
	}
	ds.satellites[s.Config.Name] = s
	ds.order = append(ds.order, s.Config.Name)
	subs := ds.snapshotSubs()
	ds.mu.Unlock()

	notify(subs, Event{Type: EventSatelliteAdded, Satellite: s.Config.Name})
	return nil
}

// Satellite returns the registry entry for name.
func (ds *DataStore) Satellite(name string) (Satellite, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	s, ok := ds.satellites[name]
	if !ok {
		return Satellite{}, fmt.Errorf("satellite %q: %w", name, ErrNoData)
	}
	return s, nil
}

// ListSatellites returns all registry entries in registration order.
func (ds *DataStore) ListSatellites() []Satellite {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	res := make([]Satellite, 0, len(ds.order))
	for _, name := range ds.order {
		res = append(res, ds.satellites[name])
	}
	return res
}

// SetTrajectory stores the visualization trajectory for a registered
// satellite, replacing any previous one.
func (ds *DataStore) SetTrajectory(name string, pts []model.TrajectoryPoint) error {
	ds.mu.Lock()
	if _, ok := ds.satellites[name]; !ok {
		ds.mu.Unlock()
		return fmt.Errorf("satellite %q: %w", name, ErrNoData)
	}
	ds.trajectories[name] = append([]model.TrajectoryPoint(nil), pts...)
	subs := ds.snapshotSubs()
	ds.mu.Unlock()

	notify(subs, Event{Type: EventTrajectorySet, Satellite: name})
	return nil
}

// AppendRecords appends timestep records for a registered satellite and
// notifies subscribers with the new batch.
func (ds *DataStore) AppendRecords(name string, recs []model.SimulationRecord) error {
	if len(recs) == 0 {
		return nil
	}
	ds.mu.Lock()
	if _, ok := ds.satellites[name]; !ok {
		ds.mu.Unlock()
		return fmt.Errorf("satellite %q: %w", name, ErrNoData)
	}
	ds.records[name] = append(ds.records[name], recs...)
	subs := ds.snapshotSubs()
	ds.mu.Unlock()

	notify(subs, Event{Type: EventRecordsAppended, Satellite: name, Records: recs})
	return nil
}

// Records returns a snapshot of all timestep records for name. ErrNoData if
// the satellite is unknown or has no records.
func (ds *DataStore) Records(name string) ([]model.SimulationRecord, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	recs := ds.records[name]
	if len(recs) == 0 {
		return nil, fmt.Errorf("satellite %q: %w", name, ErrNoData)
	}
	return append([]model.SimulationRecord(nil), recs...), nil
}

// Trajectory returns the stored visualization trajectory for name, falling
// back to the positions embedded in the timestep records when no dedicated
// trajectory was stored.
func (ds *DataStore) Trajectory(name string) ([]model.TrajectoryPoint, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	if pts := ds.trajectories[name]; len(pts) > 0 {
		return append([]model.TrajectoryPoint(nil), pts...), nil
	}
	recs := ds.records[name]
	if len(recs) == 0 {
		return nil, fmt.Errorf("satellite %q: %w", name, ErrNoData)
	}
	pts := make([]model.TrajectoryPoint, 0, len(recs))
	for _, r := range recs {
		pts = append(pts, model.TrajectoryPoint{
			Position:       r.Position,
			Velocity:       r.Velocity,
			AltitudeKm:     r.AltitudeKm,
			SpeedKmS:       r.SpeedKmS,
			LatitudeDeg:    r.LatitudeDeg,
			LongitudeDeg:   r.LongitudeDeg,
			Timestamp:      r.Timestamp,
			ElapsedSeconds: r.ElapsedSeconds,
		})
	}
	return pts, nil
}

// LatestTelemetry returns the most recent timestep record for name.
func (ds *DataStore) LatestTelemetry(name string) (model.SimulationRecord, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	recs := ds.records[name]
	if len(recs) == 0 {
		return model.SimulationRecord{}, fmt.Errorf("satellite %q: %w", name, ErrNoData)
	}
	return recs[len(recs)-1], nil
}

// Summarize reports the store contents.
func (ds *DataStore) Summarize() Summary {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	s := Summary{
		SatelliteCount:   len(ds.satellites),
		RecordCounts:     make(map[string]int, len(ds.records)),
		TrajectoryCounts: make(map[string]int, len(ds.trajectories)),
	}
	for name, recs := range ds.records {
		s.RecordCounts[name] = len(recs)
	}
	for name, pts := range ds.trajectories {
		s.TrajectoryCounts[name] = len(pts)
	}
	return s
}

// Clear drops all satellites, trajectories, and records. Subscriptions
// survive so a re-initialization keeps feeding the same sinks.
func (ds *DataStore) Clear() {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.order = nil
	ds.satellites = make(map[string]Satellite)
	ds.trajectories = make(map[string][]model.TrajectoryPoint)
	ds.records = make(map[string][]model.SimulationRecord)
}

// Subscribe registers a callback for store events. It returns an
// unsubscribe function.
func (ds *DataStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	id := ds.nextSubID
	ds.nextSubID++
	ds.subs = append(ds.subs, subscriber{id: id, fn: fn})

	return func() {
		ds.mu.Lock()
		defer ds.mu.Unlock()
		for i, sub := range ds.subs {
			if sub.id == id {
				ds.subs = append(ds.subs[:i], ds.subs[i+1:]...)
				return
			}
		}
	}
}

func (ds *DataStore) snapshotSubs() []func(Event) {
	fns := make([]func(Event), len(ds.subs))
	for i, sub := range ds.subs {
		fns[i] = sub.fn
	}
	return fns
}

// notify runs outside the store lock to avoid deadlocks with subscribers
// that read back from the store.
func notify(subs []func(Event), ev Event) {
	for _, fn := range subs {
		fn(ev)
	}
}
