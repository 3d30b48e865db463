// Package logging assembles structured slog loggers and formatting helpers used
// across the apod CLI and cache.
//
// It owns the console/JSON handlers, centralizes level and output plumbing, and
// exposes context-aware helpers so pipeline code can tag log lines with the
// invocation's correlation ID and the APOD date being processed. The package
// also provides a no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape as the rest of the system.
package logging
