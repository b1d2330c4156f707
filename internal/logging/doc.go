// Package logging builds slog loggers with console and JSON handlers and
// provides the standardized attribute helpers and context plumbing used
// across the pipeline.
package logging
