// Package logging assembles structured slog loggers used across imagemill.
//
// It owns the console and JSON handlers, centralizes level parsing and
// output plumbing, and exposes attribute helpers so pipeline code tags log
// lines with run IDs, item slugs, and command signatures consistently. A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
