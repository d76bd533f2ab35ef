// Package sink forwards simulation records to external time-series storage.
package sink

import (
	"context"
	"strings"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxapi "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/model"
	"github.com/signalsfoundry/leo-orbit-sim/store"
)

const measurement = "simulation_record"

// Config locates the InfluxDB bucket telemetry lands in.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// InfluxSink subscribes to a DataStore and writes every appended simulation
// record as a telemetry point. Writes are asynchronous and batched by the
// client; Close flushes what is pending.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI influxapi.WriteAPI
	log      logging.Logger
	unsub    func()
}

// Attach connects to InfluxDB and subscribes sink writes to the store. The
// returned sink must be Closed to flush buffered points.
func Attach(ds *store.DataStore, cfg Config, log logging.Logger) *InfluxSink {
	if log == nil {
		log = logging.Noop()
	}
	client := influxdb2.NewClient(cfg.URL, cfg.Token)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	s := &InfluxSink{
		client:   client,
		writeAPI: writeAPI,
		log:      log,
	}
	s.watchErrors()
	s.unsub = ds.Subscribe(s.onEvent)
	return s
}

// watchErrors drains the async write error channel so failed batches are
// logged instead of silently dropped.
func (s *InfluxSink) watchErrors() {
	errCh := s.writeAPI.Errors()
	go func() {
		for err := range errCh {
			s.log.Warn(context.Background(), "influx write failed", logging.Err(err))
		}
	}()
}

func (s *InfluxSink) onEvent(ev store.Event) {
	if ev.Type != store.EventRecordsAppended {
		return
	}
	for _, rec := range ev.Records {
		s.writeAPI.WritePoint(point(ev.Satellite, rec))
	}
}

func point(satellite string, rec model.SimulationRecord) *write.Point {
	p := influxdb2.NewPointWithMeasurement(measurement).
		AddTag("satellite", satellite).
		AddField("altitude_km", rec.AltitudeKm).
		AddField("velocity_kms", rec.SpeedKmS).
		AddField("latitude", rec.LatitudeDeg).
		AddField("longitude", rec.LongitudeDeg).
		AddField("battery", rec.BatteryPct).
		AddField("temperature", rec.TemperatureC).
		AddField("yaw_deg", rec.Orientation.YawDeg).
		AddField("pitch_deg", rec.Orientation.PitchDeg).
		AddField("roll_deg", rec.Orientation.RollDeg).
		SetTime(rec.Timestamp)
	if len(rec.Anomalies) > 0 {
		p.AddField("anomalies", strings.Join(rec.Anomalies, ","))
	}
	if len(rec.Collisions) > 0 {
		p.AddField("collisions", strings.Join(rec.Collisions, ";"))
	}
	return p
}

// Close unsubscribes from the store and flushes buffered points.
func (s *InfluxSink) Close() {
	if s.unsub != nil {
		s.unsub()
	}
	s.writeAPI.Flush()
	s.client.Close()
}
