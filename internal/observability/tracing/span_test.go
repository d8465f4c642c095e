package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"adherence-notify/internal/domain/entity"
)

func installRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(sdktrace.NewTracerProvider()) })
	return exporter
}

func TestStartMessageSpan_Attributes(t *testing.T) {
	exporter := installRecorder(t)
	msg := entity.NotificationMessage{
		MessageID:        "m-1",
		MemberID:         42,
		NotificationType: entity.NotificationDiaryReminder,
		RetryCount:       2,
		CreatedAt:        time.Now(),
	}

	_, span := StartMessageSpan(context.Background(), "delivery.Process", msg)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name != "delivery.Process" {
		t.Errorf("expected span name 'delivery.Process', got %q", spans[0].Name)
	}

	found := map[string]bool{}
	for _, attr := range spans[0].Attributes {
		switch string(attr.Key) {
		case "notification.message_id":
			found["id"] = attr.Value.AsString() == "m-1"
		case "notification.member_id":
			found["member"] = attr.Value.AsInt64() == 42
		case "notification.retry_count":
			found["retry"] = attr.Value.AsInt64() == 2
		}
	}
	for _, key := range []string{"id", "member", "retry"} {
		if !found[key] {
			t.Errorf("attribute %s missing or wrong", key)
		}
	}
}

func TestRecordError(t *testing.T) {
	exporter := installRecorder(t)

	_, span := StartConsumerSpan(context.Background(), "notifications:main", "1-0")
	RecordError(span, nil)
	RecordError(span, errors.New("push provider unavailable"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("expected error status, got %v", spans[0].Status.Code)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(spans[0].Events))
	}
}

func TestInit_NoEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	before := otel.GetTracerProvider()

	shutdown, err := Init(context.Background(), "adherence-notify-test")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
	if otel.GetTracerProvider() != before {
		t.Error("Init without endpoint must not replace the provider")
	}
}
