package core

import (
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// InitLogger installs the process-wide slog logger. Verbose mode turns
// on debug level and source locations.
func InitLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		AddSource:  verbose,
	})

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
