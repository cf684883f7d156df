// Package logging assembles structured slog loggers and formatting helpers
// used across scribe components.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and defines the standardized field names (job IDs, meeting event IDs,
// statuses) that let transcription activity be correlated across the queue
// manager, the worker, and the CLI. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the system.
package logging
