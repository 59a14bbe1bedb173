package metrics

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	return byName
}

func counterValue(t *testing.T, mf *dto.MetricFamily, label string) float64 {
	t.Helper()
	if mf == nil {
		t.Fatal("metric family not found")
	}
	for _, m := range mf.GetMetric() {
		if label == "" {
			return m.GetCounter().GetValue()
		}
		for _, lp := range m.GetLabel() {
			if lp.GetValue() == label {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("%s: no series with label %q", mf.GetName(), label)
	return 0
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	if NewCollector(prometheus.NewRegistry()) == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordExpansion(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordExpansion(recurrence.Weekly, 3)
	c.RecordExpansion(recurrence.Weekly, 2)
	c.RecordExpansion(recurrence.Daily, 1)

	got := gather(t, reg)
	if v := counterValue(t, got["librecur_expansions_total"], "weekly"); v != 2 {
		t.Errorf("expansions{rule=weekly} = %v, want 2", v)
	}
	if v := counterValue(t, got["librecur_expansions_total"], "daily"); v != 1 {
		t.Errorf("expansions{rule=daily} = %v, want 1", v)
	}
	if v := counterValue(t, got["librecur_occurrences_total"], ""); v != 6 {
		t.Errorf("occurrences_total = %v, want 6", v)
	}
}

func TestRecordTrace(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	trace := TraceFunc(c)

	for _, kind := range []recurrence.TraceKind{
		recurrence.TraceCacheHit,
		recurrence.TraceCacheHit,
		recurrence.TraceCacheMiss,
		recurrence.TraceMissingWeekSkipped,
		recurrence.TraceEmit,
		recurrence.TraceCapReached,
	} {
		trace(recurrence.TraceEvent{Kind: kind})
	}

	got := gather(t, reg)
	if v := counterValue(t, got["librecur_cache_lookups_total"], "hit"); v != 2 {
		t.Errorf("cache_lookups{result=hit} = %v, want 2", v)
	}
	if v := counterValue(t, got["librecur_cache_lookups_total"], "miss"); v != 1 {
		t.Errorf("cache_lookups{result=miss} = %v, want 1", v)
	}
	degradations := got["librecur_expand_degradations_total"]
	if degradations == nil || len(degradations.GetMetric()) != 1 {
		t.Fatalf("expected exactly one degradation series, got %v", degradations)
	}
	if v := counterValue(t, degradations, "missing_week_skipped"); v != 1 {
		t.Errorf("degradations{event=missing_week_skipped} = %v, want 1", v)
	}
}

func TestRecordConflictCheck(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordConflictCheck(0)
	c.RecordConflictCheck(2)
	c.RecordSourceError()
	c.RecordPlanLatency(20 * time.Millisecond)

	got := gather(t, reg)
	if v := counterValue(t, got["librecur_conflict_checks_total"], ""); v != 2 {
		t.Errorf("conflict_checks_total = %v, want 2", v)
	}
	if v := counterValue(t, got["librecur_conflicts_found_total"], ""); v != 2 {
		t.Errorf("conflicts_found_total = %v, want 2", v)
	}
	if v := counterValue(t, got["librecur_source_errors_total"], ""); v != 1 {
		t.Errorf("source_errors_total = %v, want 1", v)
	}
	h := got["librecur_plan_duration_seconds"].GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 1 {
		t.Errorf("plan_duration sample count = %d, want 1", h.GetSampleCount())
	}
}

func TestTraceFunc_Nil(t *testing.T) {
	if TraceFunc(nil) != nil {
		t.Error("expected nil trace for nil recorder")
	}
}

func TestWriteText(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordConflictCheck(1)

	var buf bytes.Buffer
	if err := WriteText(&buf, reg); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	if !strings.Contains(buf.String(), "librecur_conflict_checks_total 1") {
		t.Errorf("output missing counter line:\n%s", buf.String())
	}
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordExpansion(recurrence.Daily, 1)
	r.RecordTrace(recurrence.TraceEvent{})
	r.RecordConflictCheck(1)
	r.RecordSourceError()
	r.RecordPlanLatency(time.Second)
}
