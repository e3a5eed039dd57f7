package logging

import (
	"io"
	"log/slog"
)

// Setup installs a text slog handler on w as the default logger. Verbose lowers
// the level to debug.
func Setup(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	return logger
}
