// Package observability groups the worker's observability infrastructure.
//
// Subpackages:
//   - logging: slog JSON/text loggers and message-scoped attributes
//   - metrics: connection pool gauges for Postgres and Redis
//   - tracing: OpenTelemetry spans and OTLP/HTTP exporter setup
//
// Example usage:
//
//	logger := logging.NewLogger()
//	shutdown, err := tracing.Init(ctx, "adherence-notify-worker")
package observability
