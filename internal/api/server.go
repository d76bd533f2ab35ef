// Package api exposes the simulation over HTTP: fleet and telemetry queries,
// orbital element inspection, and the background initialization endpoints.
package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/signalsfoundry/leo-orbit-sim/core"
	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/internal/observability"
	"github.com/signalsfoundry/leo-orbit-sim/store"
)

// Server wires the HTTP routes to the data store and orchestrator.
type Server struct {
	ds      *store.DataStore
	orch    *core.Orchestrator
	log     logging.Logger
	metrics *observability.SimCollector
}

// New builds a server. metrics may be nil; the /metrics route then serves
// the default registry.
func New(ds *store.DataStore, orch *core.Orchestrator, log logging.Logger, metrics *observability.SimCollector) *Server {
	if log == nil {
		log = logging.Noop()
	}
	return &Server{ds: ds, orch: orch, log: log, metrics: metrics}
}

// Router assembles the gin engine with all routes and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.middleware())

	router.GET("/healthz", s.health)
	if s.metrics != nil {
		router.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/satellites", s.listSatellites)
		apiGroup.GET("/satellite/:name", s.satelliteData)
		apiGroup.GET("/telemetry/:name", s.telemetry)
		apiGroup.GET("/orbital_elements", s.orbitalElements)
		apiGroup.GET("/simulation/status", s.simulationStatus)
		apiGroup.POST("/simulation/init", s.simulationInit)
	}
	return router
}

// middleware logs each request with a request ID and feeds the HTTP metrics.
func (s *Server) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		ctx, reqLog := logging.WithRequestLogger(c.Request.Context(), s.log)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		elapsed := time.Since(start)
		route := c.FullPath()
		s.metrics.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), elapsed)
		reqLog.Info(ctx, "request handled",
			logging.String("route", route),
			logging.String("method", c.Request.Method),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("elapsed", elapsed))
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listSatellites returns the fleet registry with element lines.
func (s *Server) listSatellites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"satellites": s.ds.ListSatellites()})
}

// satelliteData returns the satellite's visualization trajectory, falling
// back to stepped-run positions when no dedicated trajectory exists.
func (s *Server) satelliteData(c *gin.Context) {
	name := c.Param("name")
	traj, err := s.ds.Trajectory(name)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "trajectory": traj})
}

// telemetry returns the satellite's record history. With ?latest=true only
// the most recent record is returned.
func (s *Server) telemetry(c *gin.Context) {
	name := c.Param("name")
	if c.Query("latest") == "true" {
		rec, err := s.ds.LatestTelemetry(name)
		if err != nil {
			s.renderError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": name, "telemetry": rec})
		return
	}

	recs, err := s.ds.Records(name)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name, "telemetry": recs})
}

// orbitalElements returns the raw element sets and encoded lines for every
// satellite in the fleet.
func (s *Server) orbitalElements(c *gin.Context) {
	sats := s.ds.ListSatellites()
	elements := make([]gin.H, 0, len(sats))
	for _, sat := range sats {
		elements = append(elements, gin.H{
			"name":     sat.Config.Name,
			"elements": sat.Elements,
			"line1":    sat.Line1,
			"line2":    sat.Line2,
		})
	}
	c.JSON(http.StatusOK, gin.H{"orbital_elements": elements})
}

// simulationStatus reports the background run lifecycle and store contents.
func (s *Server) simulationStatus(c *gin.Context) {
	status := s.orch.Status()
	payload := gin.H{
		"state": status.State.String(),
		"store": s.ds.Summarize(),
	}
	if !status.StartedAt.IsZero() {
		payload["started_at"] = status.StartedAt
	}
	if !status.FinishedAt.IsZero() {
		payload["finished_at"] = status.FinishedAt
	}
	if status.Err != "" {
		payload["error"] = status.Err
	}
	c.JSON(http.StatusOK, payload)
}

// simulationInit kicks off a background run. 202 on accept, 409 while a run
// is already active.
func (s *Server) simulationInit(c *gin.Context) {
	if err := s.orch.StartBackground(c.Request.Context()); err != nil {
		if errors.Is(err, core.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"state": core.StateRunning.String()})
}

func (s *Server) renderError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNoData) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.log.Error(c.Request.Context(), "request failed", logging.Err(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
