// Package logging builds the process-wide structured logger from the
// telemetry configuration.
//
// Loggers are log/slog with either a JSON or a text handler. Components
// attach their identity with logger.With("component", name) so every
// line carries its origin.
package logging
