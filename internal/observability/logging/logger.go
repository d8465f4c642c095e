// Package logging provides structured logging utilities using the standard library's log/slog package.
// It offers helper functions for creating loggers with consistent configuration and context propagation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"adherence-notify/internal/domain/entity"
)

// NewLogger creates the process logger from LOG_LEVEL and LOG_FORMAT.
// LOG_FORMAT=text selects human-readable output; anything else is JSON.
func NewLogger() *slog.Logger {
	if strings.EqualFold(os.Getenv("LOG_FORMAT"), "text") {
		return NewTextLogger(os.Stdout)
	}
	return NewJSONLogger(os.Stdout)
}

// NewJSONLogger creates a structured logger writing JSON lines to w.
func NewJSONLogger(w io.Writer) *slog.Logger {
	level := LevelFromEnv()
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		// Add source code location when running verbose
		AddSource: level <= slog.LevelDebug,
	}))
}

// NewTextLogger creates a logger with human-readable text output.
// This is useful for local development and debugging.
func NewTextLogger(w io.Writer) *slog.Logger {
	level := LevelFromEnv()
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}))
}

// LevelFromEnv parses LOG_LEVEL (debug, info, warn, error). Default: info.
func LevelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithMessage returns a logger annotated with the identifying fields of msg.
// Title and body are never logged.
func WithMessage(logger *slog.Logger, msg entity.NotificationMessage) *slog.Logger {
	return logger.With(
		slog.String("message_id", msg.MessageID),
		slog.Int64("member_id", msg.MemberID),
		slog.String("type", string(msg.NotificationType)),
		slog.Int("retry_count", msg.RetryCount),
	)
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"
