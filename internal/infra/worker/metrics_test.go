package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWorkerMetrics(t *testing.T) {
	metrics := globalTestMetrics

	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}
	if metrics.StartTimestamp == nil {
		t.Error("StartTimestamp is nil")
	}
	if metrics.ComponentUp == nil {
		t.Error("ComponentUp is nil")
	}
	if metrics.RemindersRestored == nil {
		t.Error("RemindersRestored is nil")
	}
}

func TestWorkerMetrics_RecordStart(t *testing.T) {
	globalTestMetrics.RecordStart()

	if v := testutil.ToFloat64(globalTestMetrics.StartTimestamp); v <= 0 {
		t.Errorf("start timestamp = %v, want > 0", v)
	}
}

func TestWorkerMetrics_SetComponentUp(t *testing.T) {
	globalTestMetrics.SetComponentUp("consumer", true)
	if v := testutil.ToFloat64(globalTestMetrics.ComponentUp.WithLabelValues("consumer")); v != 1 {
		t.Errorf("consumer up = %v, want 1", v)
	}

	globalTestMetrics.SetComponentUp("consumer", false)
	if v := testutil.ToFloat64(globalTestMetrics.ComponentUp.WithLabelValues("consumer")); v != 0 {
		t.Errorf("consumer up = %v, want 0", v)
	}
}

func TestWorkerMetrics_RecordRemindersRestored(t *testing.T) {
	globalTestMetrics.RecordRemindersRestored(12)

	if v := testutil.ToFloat64(globalTestMetrics.RemindersRestored); v != 12 {
		t.Errorf("reminders restored = %v, want 12", v)
	}
}
