package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values applied by ApplyDefaults.
const (
	DefaultPollInterval = 60 * time.Second
	DefaultMinDelay     = 5 * time.Second

	// DefaultMaxDelay is 350s: a 360s external kill timeout minus a 10s
	// safety margin.
	DefaultMaxDelay = 350 * time.Second

	DefaultSafetyBufferPct = 95.0

	DefaultShortWindowHours   = 5.0
	DefaultShortPreloadHours  = 0.5
	DefaultLongWindowHours    = 168.0
	DefaultLongPreloadHours   = 12.0

	DefaultUsageTimeout  = 10 * time.Second
	DefaultRetentionDays = 60
	DefaultPruneSchedule = "0 3 * * *"

	DefaultMetricsListenAddress = "127.0.0.1:9464"
)

// Default returns a fully-populated default configuration. Both quota
// windows start enabled; YAML unmarshals over this so an explicit
// "enabled: false" in the file sticks.
func Default() *Config {
	cfg := &Config{}
	cfg.Pacing.ShortWindow.Enabled = true
	cfg.Pacing.LongWindow.Enabled = true
	ApplyDefaults(cfg)
	return cfg
}

// DefaultStateDir returns the directory tempo keeps its state in.
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tempo"
	}
	return filepath.Join(home, ".tempo")
}

// ApplyDefaults fills in default values for unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Pacing.PollInterval == 0 {
		cfg.Pacing.PollInterval = DefaultPollInterval
	}

	applyWindowDefaults(&cfg.Pacing.ShortWindow, DefaultShortWindowHours, "continuous", DefaultShortPreloadHours)
	applyWindowDefaults(&cfg.Pacing.LongWindow, DefaultLongWindowHours, "business_days", DefaultLongPreloadHours)

	if cfg.Usage.Timeout == 0 {
		cfg.Usage.Timeout = DefaultUsageTimeout
	}
	if cfg.Usage.CredentialsPath == "" {
		cfg.Usage.CredentialsPath = filepath.Join(DefaultStateDir(), "credentials.json")
	}

	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(DefaultStateDir(), "usage.db")
	}

	if cfg.Retention.RetentionDays == 0 {
		cfg.Retention.RetentionDays = DefaultRetentionDays
	}
	if cfg.Retention.PruneSchedule == "" {
		cfg.Retention.PruneSchedule = DefaultPruneSchedule
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "text"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsListenAddress
	}
}

// applyWindowDefaults fills one window's unset fields.
func applyWindowDefaults(w *WindowConfig, hours float64, accrual string, preloadHours float64) {
	if w.Hours == 0 {
		w.Hours = hours
	}
	if w.Accrual == "" {
		w.Accrual = accrual
	}
	if w.PreloadHours == 0 {
		w.PreloadHours = preloadHours
	}
	if w.SafetyBufferPct == 0 {
		w.SafetyBufferPct = DefaultSafetyBufferPct
	}
	if w.MinDelay == 0 {
		w.MinDelay = DefaultMinDelay
	}
	if w.MaxDelay == 0 {
		w.MaxDelay = DefaultMaxDelay
	}
}
