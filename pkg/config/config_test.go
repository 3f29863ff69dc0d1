package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// validYAML is a minimal configuration that passes validation.
const validYAML = `
usage:
  endpoint: "https://api.example.com/usage"
  credentials_path: "/tmp/credentials.json"
storage:
  backend: memory
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tempo.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if !cfg.Pacing.ShortWindow.Enabled {
		t.Error("short window should default to enabled")
	}
	if !cfg.Pacing.LongWindow.Enabled {
		t.Error("long window should default to enabled")
	}
	if cfg.Pacing.PollInterval != DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", cfg.Pacing.PollInterval, DefaultPollInterval)
	}
	if cfg.Pacing.ShortWindow.Hours != DefaultShortWindowHours {
		t.Errorf("ShortWindow.Hours = %v, want %v", cfg.Pacing.ShortWindow.Hours, DefaultShortWindowHours)
	}
	if cfg.Pacing.ShortWindow.Accrual != "continuous" {
		t.Errorf("ShortWindow.Accrual = %q, want continuous", cfg.Pacing.ShortWindow.Accrual)
	}
	if cfg.Pacing.LongWindow.Accrual != "business_days" {
		t.Errorf("LongWindow.Accrual = %q, want business_days", cfg.Pacing.LongWindow.Accrual)
	}
	if cfg.Pacing.ShortWindow.MaxDelay != DefaultMaxDelay {
		t.Errorf("ShortWindow.MaxDelay = %v, want %v", cfg.Pacing.ShortWindow.MaxDelay, DefaultMaxDelay)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("Storage.Backend = %q, want sqlite", cfg.Storage.Backend)
	}
	if cfg.Retention.RetentionDays != DefaultRetentionDays {
		t.Errorf("RetentionDays = %d, want %d", cfg.Retention.RetentionDays, DefaultRetentionDays)
	}
	if cfg.Telemetry.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Telemetry.Logging.Level)
	}
}

func TestParse_OverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
pacing:
  poll_interval: 30s
  short_window:
    hours: 6
    min_delay: 2s
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Pacing.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.Pacing.PollInterval)
	}
	if cfg.Pacing.ShortWindow.Hours != 6 {
		t.Errorf("ShortWindow.Hours = %v, want 6", cfg.Pacing.ShortWindow.Hours)
	}
	if cfg.Pacing.ShortWindow.MinDelay != 2*time.Second {
		t.Errorf("ShortWindow.MinDelay = %v, want 2s", cfg.Pacing.ShortWindow.MinDelay)
	}
	// Fields the file does not set keep their defaults.
	if cfg.Pacing.ShortWindow.MaxDelay != DefaultMaxDelay {
		t.Errorf("ShortWindow.MaxDelay = %v, want default %v", cfg.Pacing.ShortWindow.MaxDelay, DefaultMaxDelay)
	}
	if cfg.Pacing.LongWindow.Hours != DefaultLongWindowHours {
		t.Errorf("LongWindow.Hours = %v, want default %v", cfg.Pacing.LongWindow.Hours, DefaultLongWindowHours)
	}
}

func TestParse_ExplicitDisableSticks(t *testing.T) {
	cfg, err := Parse([]byte(`
pacing:
  long_window:
    enabled: false
`))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Pacing.LongWindow.Enabled {
		t.Error("explicit enabled: false should survive defaulting")
	}
	if !cfg.Pacing.ShortWindow.Enabled {
		t.Error("short window should stay enabled")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, validYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Usage.Endpoint != "https://api.example.com/usage" {
		t.Errorf("Usage.Endpoint = %q", cfg.Usage.Endpoint)
	}
	if cfg.Storage.Backend != "memory" {
		t.Errorf("Storage.Backend = %q, want memory", cfg.Storage.Backend)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{
			name: "missing file",
			path: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.yaml")
			},
		},
		{
			name: "malformed yaml",
			path: func(t *testing.T) string {
				return writeConfig(t, "pacing: [not a map")
			},
		},
		{
			name: "invalid configuration",
			path: func(t *testing.T) string {
				return writeConfig(t, "usage:\n  endpoint: \"\"\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadConfig(tt.path(t)); err == nil {
				t.Error("LoadConfig() should fail")
			}
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Pacing.PollInterval = 0
	cfg.Pacing.ShortWindow.Accrual = "lunar"
	cfg.Pacing.ShortWindow.SafetyBufferPct = 120
	cfg.Usage.Endpoint = ""
	cfg.Storage.Backend = "postgres"
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() should fail")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error is %T, want ValidationError", err)
	}
	if len(verr.Errors) < 6 {
		t.Errorf("collected %d errors, want at least 6:\n%s", len(verr.Errors), verr.Error())
	}

	wantFields := []string{
		"pacing.poll_interval",
		"pacing.short_window.accrual",
		"pacing.short_window.safety_buffer_pct",
		"usage.endpoint",
		"storage.backend",
		"telemetry.logging.level",
	}
	for _, field := range wantFields {
		if !strings.Contains(verr.Error(), field) {
			t.Errorf("error should mention %s:\n%s", field, verr.Error())
		}
	}
}

func TestValidate_WindowRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*WindowConfig)
		field  string
	}{
		{
			name:   "zero hours",
			mutate: func(w *WindowConfig) { w.Hours = 0 },
			field:  "hours",
		},
		{
			name:   "preload exceeds window",
			mutate: func(w *WindowConfig) { w.PreloadHours = w.Hours + 1 },
			field:  "preload_hours",
		},
		{
			name:   "negative preload",
			mutate: func(w *WindowConfig) { w.PreloadHours = -1 },
			field:  "preload_hours",
		},
		{
			name:   "zero buffer",
			mutate: func(w *WindowConfig) { w.SafetyBufferPct = 0 },
			field:  "safety_buffer_pct",
		},
		{
			name:   "max below min",
			mutate: func(w *WindowConfig) { w.MaxDelay = w.MinDelay - time.Second },
			field:  "max_delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Usage.Endpoint = "https://api.example.com/usage"
			tt.mutate(&cfg.Pacing.ShortWindow)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("Validate() should fail")
			}
			if !strings.Contains(err.Error(), "pacing.short_window."+tt.field) {
				t.Errorf("error should mention %s: %v", tt.field, err)
			}
		})
	}
}

// A disabled window skips its own validation entirely.
func TestValidate_DisabledWindowSkipped(t *testing.T) {
	cfg := Default()
	cfg.Usage.Endpoint = "https://api.example.com/usage"
	cfg.Pacing.LongWindow.Enabled = false
	cfg.Pacing.LongWindow.Hours = -5

	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestValidate_InvalidCronSchedule(t *testing.T) {
	cfg := Default()
	cfg.Usage.Endpoint = "https://api.example.com/usage"
	cfg.Retention.PruneSchedule = "not a cron expr"

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "retention.prune_schedule") {
		t.Errorf("Validate() = %v, want prune_schedule error", err)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, validYAML)

	t.Setenv("TEMPO_PACING_POLL_INTERVAL", "15s")
	t.Setenv("TEMPO_USAGE_ENDPOINT", "https://override.example.com/usage")
	t.Setenv("TEMPO_SHORT_WINDOW_HOURS", "4")
	t.Setenv("TEMPO_LONG_WINDOW_ENABLED", "false")
	t.Setenv("TEMPO_METRICS_ENABLED", "true")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("LoadConfigWithEnvOverrides() error: %v", err)
	}

	if cfg.Pacing.PollInterval != 15*time.Second {
		t.Errorf("PollInterval = %v, want 15s", cfg.Pacing.PollInterval)
	}
	if cfg.Usage.Endpoint != "https://override.example.com/usage" {
		t.Errorf("Usage.Endpoint = %q, want override", cfg.Usage.Endpoint)
	}
	if cfg.Pacing.ShortWindow.Hours != 4 {
		t.Errorf("ShortWindow.Hours = %v, want 4", cfg.Pacing.ShortWindow.Hours)
	}
	if cfg.Pacing.LongWindow.Enabled {
		t.Error("LongWindow should be disabled by env override")
	}
	if !cfg.Telemetry.Metrics.Enabled {
		t.Error("Metrics should be enabled by env override")
	}
}

func TestLoadConfigWithEnvOverrides_InvalidOverride(t *testing.T) {
	path := writeConfig(t, validYAML)

	t.Setenv("TEMPO_STORAGE_BACKEND", "postgres")

	if _, err := LoadConfigWithEnvOverrides(path); err == nil {
		t.Error("invalid override should fail re-validation")
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, validYAML)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		w.Watch(ctx, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(200 * time.Millisecond)

	updated := validYAML + "\npacing:\n  poll_interval: 25s\n"
	if err := os.WriteFile(path, []byte(updated), 0o600); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Pacing.PollInterval != 25*time.Second {
			t.Errorf("reloaded PollInterval = %v, want 25s", cfg.Pacing.PollInterval)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for reload")
	}
}

// An invalid rewrite must not reach the callback.
func TestWatcher_KeepsPreviousOnInvalidReload(t *testing.T) {
	path := writeConfig(t, validYAML)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reloaded := make(chan *Config, 1)
	go func() {
		w.Watch(ctx, func(cfg *Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	time.Sleep(200 * time.Millisecond)

	if err := os.WriteFile(path, []byte("storage:\n  backend: postgres\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case <-reloaded:
		t.Error("invalid configuration should not be delivered")
	case <-ctx.Done():
	}
}
