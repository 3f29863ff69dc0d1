package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// Defaults are applied for unset fields and the result is validated.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse unmarshals raw YAML over the defaults and fills any remaining
// unset fields. It does not validate.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and
// applies environment variable overrides. Variables follow the naming
// convention TEMPO_SECTION_FIELD (e.g. TEMPO_USAGE_ENDPOINT) and always
// take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies TEMPO_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if val := os.Getenv("TEMPO_PACING_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Pacing.PollInterval = d
		}
	}

	applyWindowEnvOverrides(&cfg.Pacing.ShortWindow, "TEMPO_SHORT_WINDOW")
	applyWindowEnvOverrides(&cfg.Pacing.LongWindow, "TEMPO_LONG_WINDOW")

	if val := os.Getenv("TEMPO_USAGE_ENDPOINT"); val != "" {
		cfg.Usage.Endpoint = val
	}
	if val := os.Getenv("TEMPO_USAGE_CREDENTIALS_PATH"); val != "" {
		cfg.Usage.CredentialsPath = val
	}
	if val := os.Getenv("TEMPO_USAGE_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.Usage.Timeout = d
		}
	}

	if val := os.Getenv("TEMPO_STORAGE_BACKEND"); val != "" {
		cfg.Storage.Backend = val
	}
	if val := os.Getenv("TEMPO_STORAGE_DB_PATH"); val != "" {
		cfg.Storage.DBPath = val
	}

	if val := os.Getenv("TEMPO_RETENTION_DAYS"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Retention.RetentionDays = i
		}
	}
	if val := os.Getenv("TEMPO_RETENTION_PRUNE_SCHEDULE"); val != "" {
		cfg.Retention.PruneSchedule = val
	}

	if val := os.Getenv("TEMPO_LOG_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = val
	}
	if val := os.Getenv("TEMPO_LOG_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = val
	}
	if val := os.Getenv("TEMPO_METRICS_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Metrics.Enabled = b
		}
	}
	if val := os.Getenv("TEMPO_METRICS_LISTEN_ADDRESS"); val != "" {
		cfg.Telemetry.Metrics.ListenAddress = val
	}
}

// applyWindowEnvOverrides applies one window's overrides under the given
// variable prefix.
func applyWindowEnvOverrides(w *WindowConfig, prefix string) {
	if val := os.Getenv(prefix + "_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			w.Enabled = b
		}
	}
	if val := os.Getenv(prefix + "_HOURS"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			w.Hours = f
		}
	}
	if val := os.Getenv(prefix + "_ACCRUAL"); val != "" {
		w.Accrual = val
	}
	if val := os.Getenv(prefix + "_PRELOAD_HOURS"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			w.PreloadHours = f
		}
	}
	if val := os.Getenv(prefix + "_SAFETY_BUFFER_PCT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			w.SafetyBufferPct = f
		}
	}
	if val := os.Getenv(prefix + "_MIN_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			w.MinDelay = d
		}
	}
	if val := os.Getenv(prefix + "_MAX_DELAY"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			w.MaxDelay = d
		}
	}
}
