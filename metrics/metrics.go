// Package metrics records expansion and conflict-check counters with Prometheus.
package metrics

import (
	"io"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Recorder is what the planner reports to.
type Recorder interface {
	RecordExpansion(rule recurrence.Kind, occurrences int)
	RecordTrace(ev recurrence.TraceEvent)
	RecordConflictCheck(conflicts int)
	RecordSourceError()
	RecordPlanLatency(d time.Duration)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordExpansion(recurrence.Kind, int) {}
func (Nop) RecordTrace(recurrence.TraceEvent) {}
func (Nop) RecordConflictCheck(int) {}
func (Nop) RecordSourceError() {}
func (Nop) RecordPlanLatency(time.Duration) {}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	expansions   *prometheus.CounterVec
	occurrences  prometheus.Counter
	degradations *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	checks       prometheus.Counter
	conflicts    prometheus.Counter
	sourceErrors prometheus.Counter
	planLatency  prometheus.Histogram
}

var _ Recorder = (*Collector)(nil)

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		expansions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "librecur_expansions_total",
			Help: "Completed rule expansions by rule kind.",
		}, []string{"rule"}),
		occurrences: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "librecur_occurrences_total",
			Help: "Occurrences produced by expansions.",
		}),
		degradations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "librecur_expand_degradations_total",
			Help: "Expansion steps that fell back, skipped a month or stopped early.",
		}, []string{"event"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "librecur_cache_lookups_total",
			Help: "Expansion cache lookups by result.",
		}, []string{"result"}),
		checks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "librecur_conflict_checks_total",
			Help: "Candidate intervals checked for conflicts.",
		}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "librecur_conflicts_found_total",
			Help: "Conflicting existing intervals found.",
		}),
		sourceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "librecur_source_errors_total",
			Help: "Failed interval source lookups.",
		}),
		planLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "librecur_plan_duration_seconds",
			Help:    "Time spent building a plan.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.expansions,
		c.occurrences,
		c.degradations,
		c.cacheLookups,
		c.checks,
		c.conflicts,
		c.sourceErrors,
		c.planLatency,
	)

	return c
}

// RecordExpansion counts one finished expansion and its occurrences.
func (c *Collector) RecordExpansion(rule recurrence.Kind, occurrences int) {
	c.expansions.WithLabelValues(rule.String()).Inc()
	c.occurrences.Add(float64(occurrences))
}

// RecordTrace counts cache lookups and degraded steps. Other events are ignored.
func (c *Collector) RecordTrace(ev recurrence.TraceEvent) {
	switch ev.Kind {
	case recurrence.TraceCacheHit:
		c.cacheLookups.WithLabelValues("hit").Inc()
	case recurrence.TraceCacheMiss:
		c.cacheLookups.WithLabelValues("miss").Inc()
	case recurrence.TraceWeeklyFallback, recurrence.TraceMissingWeekSkipped,
		recurrence.TraceMissingWeekStopped, recurrence.TraceStepLimit:
		c.degradations.WithLabelValues(string(ev.Kind)).Inc()
	}
}

// RecordConflictCheck counts one candidate check and the conflicts it found.
func (c *Collector) RecordConflictCheck(conflicts int) {
	c.checks.Inc()
	c.conflicts.Add(float64(conflicts))
}

// RecordSourceError counts a failed source lookup.
func (c *Collector) RecordSourceError() {
	c.sourceErrors.Inc()
}

// RecordPlanLatency observes how long a plan took.
func (c *Collector) RecordPlanLatency(d time.Duration) {
	c.planLatency.Observe(d.Seconds())
}

// TraceFunc adapts r into a recurrence.TraceFunc.
func TraceFunc(r Recorder) recurrence.TraceFunc {
	if r == nil {
		return nil
	}
	return r.RecordTrace
}

// WriteText writes every metric gathered from g in the Prometheus text format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
