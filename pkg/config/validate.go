package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"

	"pacekit/tempo/pkg/pacing/window"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "usage.endpoint").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validatePacing(&cfg.Pacing)...)
	errs = append(errs, validateUsage(&cfg.Usage)...)
	errs = append(errs, validateStorage(&cfg.Storage)...)
	errs = append(errs, validateRetention(&cfg.Retention)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

// validatePacing validates the pacing engine configuration.
func validatePacing(cfg *PacingConfig) []FieldError {
	var errs []FieldError

	if cfg.PollInterval <= 0 {
		errs = append(errs, FieldError{
			Field:   "pacing.poll_interval",
			Message: "poll interval must be positive",
		})
	}

	errs = append(errs, validateWindow(&cfg.ShortWindow, "pacing.short_window")...)
	errs = append(errs, validateWindow(&cfg.LongWindow, "pacing.long_window")...)

	return errs
}

// validateWindow validates one quota window's configuration.
func validateWindow(cfg *WindowConfig, field string) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	if cfg.Hours <= 0 {
		errs = append(errs, FieldError{
			Field:   field + ".hours",
			Message: "window hours must be positive",
		})
	}
	if !window.AccrualMode(cfg.Accrual).Valid() {
		errs = append(errs, FieldError{
			Field:   field + ".accrual",
			Message: fmt.Sprintf("accrual mode %q is not one of: continuous, business_days", cfg.Accrual),
		})
	}
	if cfg.PreloadHours < 0 {
		errs = append(errs, FieldError{
			Field:   field + ".preload_hours",
			Message: "preload hours must not be negative",
		})
	}
	if cfg.Hours > 0 && cfg.PreloadHours > cfg.Hours {
		errs = append(errs, FieldError{
			Field:   field + ".preload_hours",
			Message: "preload hours must not exceed window hours",
		})
	}
	if cfg.SafetyBufferPct <= 0 || cfg.SafetyBufferPct > 100 {
		errs = append(errs, FieldError{
			Field:   field + ".safety_buffer_pct",
			Message: "safety buffer must be in (0, 100]",
		})
	}
	if cfg.MinDelay <= 0 {
		errs = append(errs, FieldError{
			Field:   field + ".min_delay",
			Message: "min delay must be positive",
		})
	}
	if cfg.MaxDelay < cfg.MinDelay {
		errs = append(errs, FieldError{
			Field:   field + ".max_delay",
			Message: "max delay must be at least min delay",
		})
	}

	return errs
}

// validateUsage validates the usage poller configuration.
func validateUsage(cfg *UsageConfig) []FieldError {
	var errs []FieldError

	if cfg.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "usage.endpoint",
			Message: "usage endpoint is required",
		})
	} else if u, err := url.Parse(cfg.Endpoint); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "usage.endpoint",
			Message: fmt.Sprintf("invalid endpoint URL %q", cfg.Endpoint),
		})
	}
	if cfg.CredentialsPath == "" {
		errs = append(errs, FieldError{
			Field:   "usage.credentials_path",
			Message: "credentials path is required",
		})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{
			Field:   "usage.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

// validateStorage validates the storage configuration.
func validateStorage(cfg *StorageConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.DBPath == "" {
			errs = append(errs, FieldError{
				Field:   "storage.db_path",
				Message: "db path is required for the sqlite backend",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("backend %q is not one of: sqlite, memory", cfg.Backend),
		})
	}

	return errs
}

// validateRetention validates the retention configuration.
func validateRetention(cfg *RetentionConfig) []FieldError {
	var errs []FieldError

	if cfg.RetentionDays < 0 {
		errs = append(errs, FieldError{
			Field:   "retention.retention_days",
			Message: "retention days must not be negative",
		})
	}
	if cfg.PruneSchedule != "" {
		if _, err := cron.ParseStandard(cfg.PruneSchedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "retention.prune_schedule",
				Message: fmt.Sprintf("invalid cron expression %q", cfg.PruneSchedule),
			})
		}
	}

	return errs
}

// validateTelemetry validates logging and metrics settings.
func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("level %q is not one of: debug, info, warn, error", cfg.Logging.Level),
		})
	}
	switch cfg.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("format %q is not one of: json, text", cfg.Logging.Format),
		})
	}
	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.listen_address",
			Message: "listen address is required when metrics are enabled",
		})
	}

	return errs
}
