// Package logging provides a simple leveled logging interface for memewall.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information (per-record drops, cache hits)
//   - INFO: Stage progress and run summaries
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The level is set explicitly through Configure; the package never reads the
// environment. Output goes through log/slog with a tint handler.
package logging
