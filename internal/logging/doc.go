// Package logging configures the process-wide slog logger for scout.
//
// Logs are JSON lines. With --debug, or when a log file is configured,
// they are written to a size-rotated file under ~/.scout/logs/ as well as
// stderr. Otherwise only warnings and errors reach stderr.
package logging
