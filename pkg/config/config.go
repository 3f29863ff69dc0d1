package config

import "time"

// Config is the root configuration structure for tempo.
type Config struct {
	// Pacing contains the engine settings for both quota windows.
	Pacing PacingConfig `yaml:"pacing"`

	// Usage configures the upstream usage poller.
	Usage UsageConfig `yaml:"usage"`

	// Storage configures snapshot and decision persistence.
	Storage StorageConfig `yaml:"storage"`

	// Retention configures pruning of old usage snapshots.
	Retention RetentionConfig `yaml:"retention"`

	// Telemetry contains logging and metrics settings.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// PacingConfig contains the engine settings.
type PacingConfig struct {
	// PollInterval is how long a computed decision stays valid before
	// the upstream source is polled again.
	// Default: 60s
	PollInterval time.Duration `yaml:"poll_interval"`

	// ShortWindow is the short quota window (hours-scale, typically
	// continuous accrual).
	ShortWindow WindowConfig `yaml:"short_window"`

	// LongWindow is the long quota window (days-scale, typically
	// business-day accrual). Disable to ignore the long-window quota.
	LongWindow WindowConfig `yaml:"long_window"`
}

// WindowConfig is the per-window pacing configuration.
type WindowConfig struct {
	// Enabled excludes the window from pacing entirely when false.
	Enabled bool `yaml:"enabled"`

	// Hours is the nominal window length.
	Hours float64 `yaml:"hours"`

	// Accrual is "continuous" or "business_days".
	Accrual string `yaml:"accrual"`

	// PreloadHours grants a flat allowance for the first N accruing
	// hours of the window, so a fresh window does not throttle the
	// first unit of work.
	PreloadHours float64 `yaml:"preload_hours"`

	// SafetyBufferPct scales the allowance down; 95 leaves a 5-point
	// margin below the hard limit.
	SafetyBufferPct float64 `yaml:"safety_buffer_pct"`

	// MinDelay and MaxDelay bound the emitted delay. MaxDelay should
	// stay comfortably under the caller's external kill timeout.
	MinDelay time.Duration `yaml:"min_delay"`
	MaxDelay time.Duration `yaml:"max_delay"`
}

// UsageConfig configures the upstream usage poller.
type UsageConfig struct {
	// Endpoint is the usage API URL.
	Endpoint string `yaml:"endpoint"`

	// CredentialsPath is the local credentials file holding the bearer
	// token.
	CredentialsPath string `yaml:"credentials_path"`

	// Timeout bounds each poll request.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig configures persistence.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// DBPath is the SQLite database file (sqlite backend only).
	DBPath string `yaml:"db_path"`
}

// RetentionConfig configures snapshot pruning.
type RetentionConfig struct {
	// RetentionDays is how long to keep usage snapshots. 0 keeps them
	// forever.
	// Default: 60
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning in watch
	// mode. Empty disables scheduling.
	// Default: "0 3 * * *"
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is "debug", "info", "warn", or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "text"
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint served in watch mode.
type MetricsConfig struct {
	// Enabled turns the /metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// ListenAddress is the host:port to serve metrics on.
	// Default: "127.0.0.1:9464"
	ListenAddress string `yaml:"listen_address"`
}
