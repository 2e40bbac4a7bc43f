package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. Text output on stdout is enough for the
// current deployment; handlers take the logger as a dependency so tests can
// discard it.
func New() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}
