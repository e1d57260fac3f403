package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bscott/maillib/internal/config"
)

type contextKey string

const loggerKey contextKey = "logger"

// New creates a logger from configuration. Unknown levels mean info, an
// unusable output file falls back to stderr.
func New(cfg config.LoggingConfig) *slog.Logger {
	return slog.New(NewHandler(cfg, openOutput(cfg.Output)))
}

// NewHandler builds the handler New uses, writing to w.
func NewHandler(cfg config.LoggingConfig, w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func openOutput(output string) io.Writer {
	switch output {
	case "", "stderr":
		return os.Stderr
	case "stdout":
		return os.Stdout
	case "discard", "none":
		return io.Discard
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return os.Stderr
	}
	return f
}

// WithContext returns a new context with the logger
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext returns the logger from context, or the default logger
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithComponent returns a logger with a component name
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithSessionID returns a logger tagged with a mailbox session id
func WithSessionID(logger *slog.Logger, id string) *slog.Logger {
	return logger.With("session_id", id)
}

// WithMailbox returns a logger tagged with a mailbox name
func WithMailbox(logger *slog.Logger, name string) *slog.Logger {
	return logger.With("mailbox", name)
}
