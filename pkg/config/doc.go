// Package config provides typed YAML configuration for tempo.
//
// Configuration is loaded in a fixed sequence: parse the YAML file,
// apply defaults, apply TEMPO_* environment overrides, then validate.
// Validation happens once at load time and collects every error rather
// than stopping at the first, so a misconfigured file reports all of
// its problems in one pass.
//
// The Watcher provides hot reload: it watches the config file with
// fsnotify and delivers re-validated configurations to a callback.
package config
