package logging

import (
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
)

// Setup configures the process-wide default logger. Logs always go to
// stderr: with the stdio transport, stdout carries the protocol stream
// and must stay clean. Interactive terminals get human-readable text;
// everything else gets JSON for log collectors.
func Setup(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}
