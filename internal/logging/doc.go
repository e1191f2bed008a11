// Package logging configures slog output for urlstash.
//
// Two formats are supported: a compact console format for interactive use and
// JSON for machine consumption. Component loggers carry a standardized
// component attribute; scan sessions additionally carry a correlation ID and
// the current scene ID via context.
package logging
