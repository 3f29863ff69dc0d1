package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"pacekit/tempo/pkg/config"
	"pacekit/tempo/pkg/pacing"
	"pacekit/tempo/pkg/pacing/storage"
	"pacekit/tempo/pkg/pacing/window"
	"pacekit/tempo/pkg/telemetry/logging"
	"pacekit/tempo/pkg/usage"
)

// app wires the configured components together for a command.
type app struct {
	cfg          *config.Config
	logger       *slog.Logger
	store        storage.Backend
	orchestrator *pacing.Orchestrator
	metrics      *pacing.Metrics
	registry     *prometheus.Registry
}

// newApp loads configuration, builds the logger, opens storage, and
// assembles the orchestrator. withMetrics attaches a Prometheus
// registry for watch mode.
func newApp(path string, withMetrics bool) (*app, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	}
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}

	if withMetrics {
		a.registry = prometheus.NewRegistry()
		a.metrics = pacing.NewMetrics(a.registry)
	}

	a.orchestrator = pacing.NewOrchestrator(pacingConfig(cfg), store, newUsageClient(cfg), a.metrics)

	return a, nil
}

// newUsageClient builds the upstream poller from the configuration.
func newUsageClient(cfg *config.Config) *usage.Client {
	return usage.NewClient(usage.Config{
		Endpoint:        cfg.Usage.Endpoint,
		CredentialsPath: cfg.Usage.CredentialsPath,
		Timeout:         cfg.Usage.Timeout,
		UserAgent:       "tempo/" + Version,
	})
}

// Close releases the storage backend.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close storage", "error", err)
	}
}

// openStorage opens the configured storage backend.
func openStorage(cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Backend {
	case "memory":
		return storage.NewMemoryBackend(), nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
		return storage.NewSQLiteBackend(cfg.DBPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// pacingConfig maps the file configuration onto the engine configuration.
func pacingConfig(cfg *config.Config) pacing.Config {
	return pacing.Config{
		Short:        windowConfig(cfg.Pacing.ShortWindow),
		Long:         windowConfig(cfg.Pacing.LongWindow),
		PollInterval: cfg.Pacing.PollInterval,
	}
}

func windowConfig(w config.WindowConfig) pacing.WindowConfig {
	return pacing.WindowConfig{
		Enabled:         w.Enabled,
		Hours:           w.Hours,
		Accrual:         window.AccrualMode(w.Accrual),
		PreloadHours:    w.PreloadHours,
		SafetyBufferPct: w.SafetyBufferPct,
		MinDelay:        w.MinDelay,
		MaxDelay:        w.MaxDelay,
	}
}
