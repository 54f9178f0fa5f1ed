// Package logging assembles structured slog loggers and formatting helpers used
// across issuegrid.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so refresh and API code can tag
// log lines with profile names, repositories, refresh IDs and correlation IDs.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail, plus retention cleanup for the daemon's log directory.
package logging
