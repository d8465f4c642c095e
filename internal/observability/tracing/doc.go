// Package tracing provides OpenTelemetry spans for message processing.
//
// The worker creates one span per processed stream entry and child spans for
// each device send and dead-letter alert. Init installs an OTLP/HTTP
// exporter when OTEL_EXPORTER_OTLP_ENDPOINT is set; otherwise spans are
// dropped by the global no-op provider.
//
// Example usage:
//
//	ctx, span := tracing.StartMessageSpan(ctx, "delivery.Process", msg)
//	defer span.End()
//	if err != nil {
//	    tracing.RecordError(span, err)
//	}
package tracing
