package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"adherence-notify/internal/domain/entity"
)

// MessageAttributes returns the span attributes identifying msg.
func MessageAttributes(msg entity.NotificationMessage) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("notification.message_id", msg.MessageID),
		attribute.Int64("notification.member_id", msg.MemberID),
		attribute.String("notification.type", string(msg.NotificationType)),
		attribute.Int("notification.retry_count", msg.RetryCount),
	}
}

// StartMessageSpan starts an internal span annotated with msg.
func StartMessageSpan(ctx context.Context, name string, msg entity.NotificationMessage, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append(MessageAttributes(msg), attrs...)
	return GetTracer().Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(all...),
	)
}

// StartConsumerSpan starts a consumer span for a stream entry.
func StartConsumerSpan(ctx context.Context, stream, entryID string) (context.Context, trace.Span) {
	return GetTracer().Start(ctx, "queue.process "+stream,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "redis"),
			attribute.String("messaging.destination.name", stream),
			attribute.String("messaging.message.id", entryID),
		),
	)
}

// RecordError marks span as failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
