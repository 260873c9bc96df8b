package core

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusMetricsRecorderObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}

	recorder.Observe(context.Background(), "register_recipe", true, 25*time.Millisecond)
	recorder.Observe(context.Background(), "register_recipe", false, 5*time.Millisecond)
	recorder.Observe(context.Background(), "", true, time.Millisecond)

	success := testutil.ToFloat64(recorder.results.WithLabelValues("register_recipe", "success"))
	if success != 1 {
		t.Fatalf("success counter = %v, want 1", success)
	}
	failure := testutil.ToFloat64(recorder.results.WithLabelValues("register_recipe", "error"))
	if failure != 1 {
		t.Fatalf("error counter = %v, want 1", failure)
	}

	count := testutil.CollectAndCount(recorder.durations, "isocore_service_operation_duration_seconds")
	if count != 1 {
		t.Fatalf("histogram series = %d, want 1", count)
	}
}

func TestPrometheusMetricsRecorderRejectsDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusMetricsRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusMetricsRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestServiceWithPrometheusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	recorder, err := NewPrometheusMetricsRecorder(reg)
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	svc := NewInMemoryService(NewDefaultRulesEngine(), WithMetricsRecorder(recorder))

	if _, _, err := svc.RegisterRecipe(context.Background(), "leu", mustComposition(t, map[Iso]float64{92235: 4, 92238: 96})); err != nil {
		t.Fatalf("register: %v", err)
	}
	got := testutil.ToFloat64(recorder.results.WithLabelValues("register_recipe", "success"))
	if got != 1 {
		t.Fatalf("success counter = %v, want 1", got)
	}
}
