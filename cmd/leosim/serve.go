package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/leo-orbit-sim/core"
	"github.com/signalsfoundry/leo-orbit-sim/internal/api"
	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/internal/observability"
	"github.com/signalsfoundry/leo-orbit-sim/internal/sink"
	"github.com/signalsfoundry/leo-orbit-sim/timectrl"
)

var (
	flagAddr         string
	flagRerunEvery   time.Duration
	flagInfluxURL    string
	flagInfluxToken  string
	flagInfluxOrg    string
	flagInfluxBucket string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve the simulation HTTP API",
	Long: `serve starts the HTTP API, kicks off a background simulation run, and
keeps serving fleet, trajectory, and telemetry queries until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&flagAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.Flags().DurationVar(&flagRerunEvery, "rerun-every", 0, "periodically restart the simulation run (0 disables)")
	serveCmd.Flags().StringVar(&flagInfluxURL, "influx-url", os.Getenv("SIM_INFLUX_URL"), "InfluxDB URL for the telemetry sink (empty disables it)")
	serveCmd.Flags().StringVar(&flagInfluxToken, "influx-token", "", "InfluxDB API token")
	serveCmd.Flags().StringVar(&flagInfluxOrg, "influx-org", "leosim", "InfluxDB organisation")
	serveCmd.Flags().StringVar(&flagInfluxBucket, "influx-bucket", "telemetry", "InfluxDB bucket")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.NewFromEnv()
	ctx := cmd.Context()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	ds, orch, collector, err := buildEngine(ctx, log)
	if err != nil {
		return err
	}

	if flagInfluxURL != "" {
		influx := sink.Attach(ds, sink.Config{
			URL:    flagInfluxURL,
			Token:  flagInfluxToken,
			Org:    flagInfluxOrg,
			Bucket: flagInfluxBucket,
		}, log)
		defer influx.Close()
		log.Info(ctx, "telemetry sink attached", logging.String("url", flagInfluxURL))
	}

	if err := orch.StartBackground(ctx); err != nil {
		return err
	}

	if flagRerunEvery > 0 {
		ticker := timectrl.NewTicker(flagRerunEvery)
		ticker.AddListener(func(tick time.Time) {
			switch err := orch.StartBackground(ctx); {
			case err == nil:
				log.Info(ctx, "scheduled rerun started", logging.String("tick", tick.Format(time.RFC3339)))
			case errors.Is(err, core.ErrRunInProgress):
				log.Debug(ctx, "scheduled rerun skipped, previous run still active")
			default:
				log.Error(ctx, "scheduled rerun failed", logging.Err(err))
			}
		})
		ticker.Start()
		defer ticker.Stop()
	}

	srv := &http.Server{
		Addr:    flagAddr,
		Handler: api.New(ds, orch, log, collector).Router(),
	}
	go func() {
		log.Info(ctx, "serving simulation API", logging.String("addr", flagAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "HTTP server exited", logging.Err(err))
		}
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	<-stopCtx.Done()

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
