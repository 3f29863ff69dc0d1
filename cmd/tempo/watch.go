package main

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"pacekit/tempo/pkg/cli"
	"pacekit/tempo/pkg/config"
	"pacekit/tempo/pkg/pacing"
	"pacekit/tempo/pkg/pacing/retention"
)

var watchFlags struct {
	session string
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pacing loop continuously",
	Long: `Run the pacing loop continuously.

Watch polls the usage endpoint on the configured interval, records
snapshots, and logs each decision. Old snapshots are pruned on the
configured cron schedule, and a Prometheus /metrics endpoint is served
when telemetry.metrics.enabled is set.

The loop runs until SIGINT or SIGTERM.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.session, "session", "s", "", "session identifier (default: random)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := newApp(configPath(), true)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cli.SetupSignalHandler()

	sessionID := watchFlags.session
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	pruner := retention.NewPruner(app.store, &retention.Config{
		RetentionDays: app.cfg.Retention.RetentionDays,
		PruneSchedule: app.cfg.Retention.PruneSchedule,
	})
	if app.cfg.Retention.PruneSchedule != "" {
		if err := pruner.Scheduler().Start(ctx); err != nil {
			return err
		}
		defer pruner.Scheduler().Stop()
	}

	if app.cfg.Telemetry.Metrics.Enabled {
		go serveMetrics(ctx, app)
	}

	// Pacing settings hot-reload from the config file; storage and
	// telemetry changes still require a restart.
	var current atomic.Pointer[pacing.Orchestrator]
	current.Store(app.orchestrator)
	go watchConfig(ctx, app, &current)

	app.logger.Info("pacing loop started",
		"session_id", sessionID,
		"poll_interval", app.cfg.Pacing.PollInterval,
	)

	ticker := time.NewTicker(app.cfg.Pacing.PollInterval)
	defer ticker.Stop()

	check := func() {
		decision := current.Load().Check(ctx, sessionID)
		app.logger.Info("pacing decision",
			"session_id", sessionID,
			"should_throttle", decision.ShouldThrottle,
			"delay_seconds", decision.DelaySeconds,
			"constrained_window", decision.ConstrainedWindow,
			"deviation_pct", decision.DeviationPct,
			"strategy", decision.Strategy,
		)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			app.logger.Info("pacing loop stopped")
			return nil
		case <-ticker.C:
			check()
		}
	}
}

// watchConfig rebuilds the orchestrator when the configuration file
// changes. The storage backend and metrics registry are kept; only the
// pacing and usage settings take effect without a restart.
func watchConfig(ctx context.Context, app *app, current *atomic.Pointer[pacing.Orchestrator]) {
	watcher, err := config.NewWatcher(configPath(), app.logger)
	if err != nil {
		app.logger.Warn("configuration hot reload unavailable", "error", err)
		return
	}
	defer watcher.Close()

	watcher.Watch(ctx, func(cfg *config.Config) {
		current.Store(pacing.NewOrchestrator(pacingConfig(cfg), app.store, newUsageClient(cfg), app.metrics))
		app.logger.Info("pacing configuration applied",
			"poll_interval", cfg.Pacing.PollInterval,
		)
	})
}

// serveMetrics serves the Prometheus registry until the context is
// cancelled.
func serveMetrics(ctx context.Context, app *app) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:    app.cfg.Telemetry.Metrics.ListenAddress,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	app.logger.Info("metrics endpoint listening", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error("metrics endpoint failed", "error", err)
	}
}
