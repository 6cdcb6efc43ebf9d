package logger

import (
	"log/slog"
	"os"
)

var base *slog.Logger

// Init configures the process logger. Production emits JSON at info level,
// everything else text at debug.
func Init(env string) {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var handler slog.Handler
	if env == "production" {
		opts.Level = slog.LevelInfo
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	base = slog.New(handler).With("service", "undiziwa")
	slog.SetDefault(base)
}

// L returns the process logger, initializing a development one on first use.
func L() *slog.Logger {
	if base == nil {
		Init("development")
	}
	return base
}
