package match

import (
	"log/slog"
	"os"
)

var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// SetLogger replaces the package logger, e.g. to route engine logs into the
// host's logging setup.
func SetLogger(l *slog.Logger) {
	logger = l
}
