package utils

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger builds the diagnostics stream against the current options:
// verbose runs log at debug level, otherwise only warnings surface.
// Constructed on demand so that flag parsing is respected.
func Logger() *slog.Logger {
	level := slog.LevelWarn
	if Opts().Verbose() {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    Opts().NoColorize(),
	}))
}
