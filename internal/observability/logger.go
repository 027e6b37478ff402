// Package observability provides the logger and Prometheus metrics shared by
// the pipeline commands.
package observability

import (
	"log/slog"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLogger builds the process logger and installs it as the slog default.
// format is "text" or JSON; unknown levels fall back to info.
func NewLogger(level, format string) *slog.Logger {
	return sharedobs.NewLogger(level, format)
}

// DiscardLogger returns a logger that drops every record. Intended for tests.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
