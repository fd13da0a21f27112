// Package logging assembles structured slog loggers and formatting helpers used
// across videoqa.
//
// It owns the console/JSON handlers, rotates the log file through lumberjack,
// and exposes context-aware helpers so controllers can tag log lines with
// video IDs, operation names, and correlation IDs. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the client.
package logging
