package logger

import (
	"log/slog"
	"os"
)

// New returns a structured stdout logger. Level defaults to info;
// VOUCH_LOG_LEVEL=debug turns on debug output.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("VOUCH_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
