// Package logging provides structured logging utilities with context propagation.
//
// Key features:
//   - JSON and text output formats (LOG_FORMAT)
//   - Configurable log levels (LOG_LEVEL)
//   - Message-scoped loggers carrying message id, member id, type and retry count
//   - Context-aware logging
//
// Example usage:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	log := logging.WithMessage(logger, msg)
//	log.Info("notification delivered")
package logging
