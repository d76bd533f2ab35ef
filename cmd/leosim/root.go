package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/leo-orbit-sim/core"
	"github.com/signalsfoundry/leo-orbit-sim/internal/cache"
	"github.com/signalsfoundry/leo-orbit-sim/internal/logging"
	"github.com/signalsfoundry/leo-orbit-sim/internal/observability"
	"github.com/signalsfoundry/leo-orbit-sim/store"
)

var (
	flagSpanHours   float64
	flagStepSeconds float64
	flagSeed        int64
	flagRandomize   bool
	flagCacheDir    string
	flagRedisAddr   string
	flagNoCache     bool
)

var rootCmd = &cobra.Command{
	Use:   "leosim",
	Short: "low Earth orbit constellation simulator",
	Long: `leosim synthesizes orbital element sets for a small satellite fleet,
propagates trajectories with SGP4, and derives telemetry, close approaches,
and anomalies over a configurable time span.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Float64Var(&flagSpanHours, "span-hours", 0, "simulation span in hours (default from SIM_SPAN_HOURS or 24)")
	pf.Float64Var(&flagStepSeconds, "step-seconds", 0, "tick width in seconds (default from SIM_STEP_SECONDS or 5)")
	pf.Int64Var(&flagSeed, "seed", 0, "fixed random seed; 0 means time-derived")
	pf.BoolVar(&flagRandomize, "randomize", false, "randomize fleet geometry on initialization")
	pf.StringVar(&flagCacheDir, "cache-dir", envOr("SIM_CACHE_DIR", "tle_cache"), "directory for element set snapshots")
	pf.StringVar(&flagRedisAddr, "redis-addr", os.Getenv("SIM_REDIS_ADDR"), "redis address for a shared element cache (overrides the file cache)")
	pf.BoolVar(&flagNoCache, "no-cache", false, "disable element set caching")
}

// engineConfig merges environment defaults with command-line overrides.
func engineConfig() core.Config {
	cfg := core.ConfigFromEnv()
	if flagSpanHours > 0 {
		cfg.SpanHours = flagSpanHours
	}
	if flagStepSeconds > 0 {
		cfg.StepSeconds = flagStepSeconds
	}
	if flagSeed != 0 {
		cfg.Seed = flagSeed
	}
	if flagRandomize {
		cfg.RandomizeOrbits = true
	}
	return cfg
}

// buildEngine assembles the store, orchestrator, metrics, and element cache
// shared by the serve and run commands.
func buildEngine(ctx context.Context, log logging.Logger) (*store.DataStore, *core.Orchestrator, *observability.SimCollector, error) {
	cfg := engineConfig()
	ds := store.New()
	orch := core.NewOrchestrator(cfg, ds, log)

	collector, err := observability.NewSimCollector(nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initialise metrics collector: %w", err)
	}
	orch.SetMetrics(collector)

	if !flagNoCache {
		elemCache, err := buildCache(ctx)
		if err != nil {
			log.Warn(ctx, "element cache unavailable, running without it", logging.Err(err))
		} else {
			orch.SetCache(elemCache)
		}
	}
	return ds, orch, collector, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func buildCache(ctx context.Context) (core.ElementCache, error) {
	if flagRedisAddr != "" {
		return cache.NewRedisCache(ctx, flagRedisAddr, os.Getenv("SIM_REDIS_PASSWORD"), 0, 24*time.Hour)
	}
	return cache.NewFileCache(flagCacheDir, 24*time.Hour), nil
}
