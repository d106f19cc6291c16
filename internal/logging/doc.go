// Package logging assembles the structured slog loggers used across Glance.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes attr helpers plus context-aware constructors so run
// code tags every line with the run ID and component. A no-op logger is
// available for tests and wiring code that cannot fail.
package logging
