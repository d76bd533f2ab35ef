package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/leo-orbit-sim/core"
	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/internal/observability"
	"github.com/signalsfoundry/leo-orbit-sim/model"
	"github.com/signalsfoundry/leo-orbit-sim/store"
	"github.com/signalsfoundry/leo-orbit-sim/timectrl"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testRouter(t *testing.T, ds *store.DataStore) (*gin.Engine, *core.Orchestrator) {
	t.Helper()
	cfg := core.DefaultConfig()
	cfg.SpanHours = 0.05
	cfg.StepSeconds = 60
	cfg.FullOrbitPoints = 200
	cfg.Seed = 7
	return testRouterWithConfig(t, ds, cfg)
}

func testRouterWithConfig(t *testing.T, ds *store.DataStore, cfg core.Config) (*gin.Engine, *core.Orchestrator) {
	t.Helper()
	orch := core.NewOrchestrator(cfg, ds, logging.Noop())
	orch.SetClock(timectrl.Fixed(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)))

	metrics, err := observability.NewSimCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewSimCollector: %v", err)
	}
	orch.SetMetrics(metrics)

	srv := New(ds, orch, logging.Noop(), metrics)
	return srv.Router(), orch
}

func doRequest(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func seedSatellite(t *testing.T, ds *store.DataStore) {
	t.Helper()
	if err := ds.AddSatellite(store.Satellite{
		Config: model.SatelliteConfig{Name: "CRTS1", AltitudeKm: 550, InclinationDeg: 51.6},
		Line1:  "1 ...",
		Line2:  "2 ...",
	}); err != nil {
		t.Fatal(err)
	}
}

func TestHealthz(t *testing.T) {
	router, _ := testRouter(t, store.New())
	rr := doRequest(router, http.MethodGet, "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("/healthz status = %d, want 200", rr.Code)
	}
}

func TestListSatellites(t *testing.T) {
	ds := store.New()
	seedSatellite(t, ds)
	router, _ := testRouter(t, ds)

	rr := doRequest(router, http.MethodGet, "/api/satellites")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body struct {
		Satellites []store.Satellite `json:"satellites"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Satellites) != 1 || body.Satellites[0].Config.Name != "CRTS1" {
		t.Fatalf("satellites = %+v", body.Satellites)
	}
}

func TestSatelliteDataNotFound(t *testing.T) {
	router, _ := testRouter(t, store.New())
	rr := doRequest(router, http.MethodGet, "/api/satellite/GHOST")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
}

func TestTelemetryLatest(t *testing.T) {
	ds := store.New()
	seedSatellite(t, ds)
	recs := []model.SimulationRecord{
		{ElapsedSeconds: 0, BatteryPct: 80},
		{ElapsedSeconds: 60, BatteryPct: 79.9},
	}
	if err := ds.AppendRecords("CRTS1", recs); err != nil {
		t.Fatal(err)
	}
	router, _ := testRouter(t, ds)

	rr := doRequest(router, http.MethodGet, "/api/telemetry/CRTS1?latest=true")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body struct {
		Telemetry model.SimulationRecord `json:"telemetry"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Telemetry.ElapsedSeconds != 60 {
		t.Fatalf("latest elapsed = %v, want 60", body.Telemetry.ElapsedSeconds)
	}

	rr = doRequest(router, http.MethodGet, "/api/telemetry/CRTS1")
	var history struct {
		Telemetry []model.SimulationRecord `json:"telemetry"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history.Telemetry) != 2 {
		t.Fatalf("history length = %d, want 2", len(history.Telemetry))
	}
}

func TestSimulationInitAndStatus(t *testing.T) {
	router, _ := testRouter(t, store.New())

	rr := doRequest(router, http.MethodGet, "/api/simulation/status")
	if rr.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d, want 200", rr.Code)
	}
	var status struct {
		State string `json:"state"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if status.State != "idle" {
		t.Fatalf("initial state = %q, want idle", status.State)
	}

	rr = doRequest(router, http.MethodPost, "/api/simulation/init")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("init status = %d, want 202: %s", rr.Code, rr.Body.String())
	}

	deadline := time.After(30 * time.Second)
	for {
		rr = doRequest(router, http.MethodGet, "/api/simulation/status")
		if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if status.State == "done" {
			break
		}
		if status.State == "failed" {
			t.Fatalf("background run failed: %s", rr.Body.String())
		}
		select {
		case <-deadline:
			t.Fatalf("run did not finish, state %q", status.State)
		case <-time.After(10 * time.Millisecond):
		}
	}

	rr = doRequest(router, http.MethodGet, "/api/orbital_elements")
	if rr.Code != http.StatusOK {
		t.Fatalf("orbital_elements status = %d, want 200", rr.Code)
	}
	var elems struct {
		OrbitalElements []map[string]any `json:"orbital_elements"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &elems); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(elems.OrbitalElements) != 2 {
		t.Fatalf("orbital elements for %d satellites, want 2", len(elems.OrbitalElements))
	}
}

func TestSimulationInitConflictWhileRunning(t *testing.T) {
	// A longer grid keeps the background run busy while the second init
	// request lands.
	cfg := core.DefaultConfig()
	cfg.SpanHours = 2
	cfg.StepSeconds = 5
	cfg.FullOrbitPoints = 200
	cfg.Seed = 7
	router, orch := testRouterWithConfig(t, store.New(), cfg)

	rr := doRequest(router, http.MethodPost, "/api/simulation/init")
	if rr.Code != http.StatusAccepted {
		t.Fatalf("first init = %d, want 202", rr.Code)
	}
	rr = doRequest(router, http.MethodPost, "/api/simulation/init")
	if rr.Code != http.StatusConflict {
		t.Fatalf("second init = %d, want 409", rr.Code)
	}

	// Drain the background run so the test binary exits cleanly.
	deadline := time.After(30 * time.Second)
	for orch.Status().State == core.StateRunning {
		select {
		case <-deadline:
			t.Fatal("run did not finish")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	router, _ := testRouter(t, store.New())
	doRequest(router, http.MethodGet, "/healthz")
	rr := doRequest(router, http.MethodGet, "/metrics")
	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
}
