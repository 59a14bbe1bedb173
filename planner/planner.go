// Package planner expands a recurring series into concrete intervals and checks
// each one against an interval source.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cyp0633/librecur/conflict"
	"github.com/cyp0633/librecur/metrics"
	"github.com/cyp0633/librecur/recurrence"
	"github.com/cyp0633/librecur/storage"
	"github.com/google/uuid"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"
)

// Mode selects interval defaults and conflict semantics.
type Mode int

const (
	// Event intervals need an explicit end and conflict on any time overlap.
	Event Mode = iota
	// Task intervals default to one hour and only conflict through a shared,
	// non-cancelled participant.
	Task
)

func (m Mode) String() string {
	if m == Task {
		return "task"
	}
	return "event"
}

// ParseMode maps "event" or "task" (any case) to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "event", "":
		return Event, nil
	case "task":
		return Task, nil
	}
	return Event, fmt.Errorf("unknown mode %q", s)
}

// ErrReserveUnsupported is returned when a reservation is requested from a source
// that cannot reserve.
var ErrReserveUnsupported = errors.New("interval source does not support reservations")

// Config holds configuration options for a Planner
type Config struct {
	// Engine expands rules. Nil means an engine without cache.
	Engine *recurrence.Engine
	// Source supplies existing intervals. Nil means nothing is booked.
	Source storage.IntervalSource
	Logger *slog.Logger
	// Metrics receives counters. Nil means metrics.Nop.
	Metrics metrics.Recorder
	// Concurrency bounds parallel source lookups.
	Concurrency int
	// CancelledStatuses lists interval statuses ignored in Task mode.
	CancelledStatuses []string
}

// DefaultConfig provides sensible defaults
var DefaultConfig = Config{
	Concurrency:       4,
	CancelledStatuses: []string{"cancelled"},
}

// Request describes the series to plan.
type Request struct {
	// SeriesID makes interval IDs stable across runs and lets a re-plan ignore the
	// series' own previously stored occurrences. Empty means random IDs.
	SeriesID string
	Start    time.Time
	// End of the first occurrence; its distance from Start is every occurrence's
	// duration.
	End            mo.Option[time.Time]
	Rule           recurrence.Rule
	Max            int
	Mode           Mode
	ParticipantIDs []string
	Status         string
	// Horizon overrides the engine's default horizon for rules without RangeEnd.
	Horizon mo.Option[time.Time]
	// Reserve stores each free interval through the source, which must implement
	// storage.Reserver.
	Reserve bool
}

// Slot is one planned occurrence.
type Slot struct {
	Interval  conflict.Interval
	Conflicts []conflict.Interval
	Reserved  bool
}

// Free reports whether the slot has no conflicts.
func (s Slot) Free() bool {
	return len(s.Conflicts) == 0
}

// Plan is the result of Planner.Plan.
type Plan struct {
	Mode        Mode
	Occurrences []time.Time
	Slots       []Slot
	Free        int
	Conflicting int
	// SelfOverlapping is set when the series' own intervals overlap each other.
	SelfOverlapping bool
}

// Summary renders a one-line description of the plan.
func (p *Plan) Summary() string {
	s := fmt.Sprintf("%d occurrences, %d free, %d conflicting", len(p.Slots), p.Free, p.Conflicting)
	if p.SelfOverlapping {
		s += ", series overlaps itself"
	}
	return s
}

// Planner turns a Request into a Plan. It is safe for concurrent use.
type Planner struct {
	engine   *recurrence.Engine
	source   storage.IntervalSource
	logger   *slog.Logger
	metrics  metrics.Recorder
	limit    int
	detector map[Mode]*conflict.Detector
}

// New creates a planner. Zero fields of config take their DefaultConfig value.
func New(config Config) *Planner {
	if config.Engine == nil {
		config.Engine = recurrence.NewEngineWithoutCache()
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	if config.Metrics == nil {
		config.Metrics = metrics.Nop{}
	}
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultConfig.Concurrency
	}
	if config.CancelledStatuses == nil {
		config.CancelledStatuses = DefaultConfig.CancelledStatuses
	}

	return &Planner{
		engine:  config.Engine,
		source:  config.Source,
		logger:  config.Logger,
		metrics: config.Metrics,
		limit:   config.Concurrency,
		detector: map[Mode]*conflict.Detector{
			Event: conflict.EventDetector(),
			Task:  conflict.TaskDetector(conflict.StatusIn(config.CancelledStatuses...)),
		},
	}
}

// Plan expands req, derives one interval per occurrence and looks up conflicts for
// each. When expansion stops on a week-of-month gap, the plan for the occurrences
// found so far is returned together with the error.
func (p *Planner) Plan(ctx context.Context, req Request) (*Plan, error) {
	began := time.Now()
	defer func() { p.metrics.RecordPlanLatency(time.Since(began)) }()

	if req.Mode != Event && req.Mode != Task {
		return nil, fmt.Errorf("unknown mode %d", req.Mode)
	}
	if req.Reserve {
		if _, ok := p.source.(storage.Reserver); !ok {
			return nil, ErrReserveUnsupported
		}
	}

	policy := conflict.DefaultDuration
	if req.Mode == Event {
		policy = conflict.RequireEnd
	}
	end, err := conflict.ResolveEnd(req.Start, req.End, policy)
	if err != nil {
		return nil, fmt.Errorf("resolve first occurrence: %w", err)
	}

	opts := []recurrence.ExpandOption{
		recurrence.WithTrace(metrics.TraceFunc(p.metrics)),
		recurrence.WithTrace(recurrence.SlogTrace(p.logger)),
	}
	if h, ok := req.Horizon.Get(); ok {
		opts = append(opts, recurrence.WithHorizon(h))
	}
	occurrences, expandErr := p.engine.Expand(req.Start, req.Rule, req.Max, opts...)
	var stopped *recurrence.MissingWeekError
	if expandErr != nil && !errors.As(expandErr, &stopped) {
		return nil, fmt.Errorf("expand: %w", expandErr)
	}
	p.metrics.RecordExpansion(req.Rule.Kind(), len(occurrences))

	plan := &Plan{
		Mode:        req.Mode,
		Occurrences: occurrences,
		Slots:       make([]Slot, len(occurrences)),
	}
	for i, occ := range occurrences {
		plan.Slots[i].Interval = p.interval(req, occ, recurrence.OccurrenceEnd(occ, req.Start, mo.Some(end)))
	}
	plan.SelfOverlapping = selfOverlaps(plan.Slots)
	if plan.SelfOverlapping {
		p.logger.Warn("series occurrences overlap each other",
			"rule", req.Rule.String(), "duration", end.Sub(req.Start))
	}

	if err := p.check(ctx, req, plan.Slots); err != nil {
		return nil, err
	}

	for _, slot := range plan.Slots {
		if slot.Free() {
			plan.Free++
		} else {
			plan.Conflicting++
		}
	}
	p.logger.Info("plan built",
		"mode", req.Mode.String(),
		"rule", req.Rule.String(),
		"occurrences", len(plan.Slots),
		"free", plan.Free,
		"conflicting", plan.Conflicting,
	)

	if expandErr != nil {
		return plan, fmt.Errorf("expand: %w", expandErr)
	}
	return plan, nil
}

func (p *Planner) interval(req Request, start, end time.Time) conflict.Interval {
	iv := conflict.Interval{
		Start:          start,
		End:            end,
		ParticipantIDs: req.ParticipantIDs,
		Status:         req.Status,
	}
	if req.SeriesID == "" {
		iv.ID = uuid.NewString()
		return iv
	}
	iv.ID = uuid.NewSHA1(uuid.NameSpaceOID, []byte(req.SeriesID+"/"+start.UTC().Format(time.RFC3339Nano))).String()
	iv.ExcludeID = mo.Some(iv.ID)
	return iv
}

// check fills in conflicts for every slot, querying the source concurrently.
func (p *Planner) check(ctx context.Context, req Request, slots []Slot) error {
	detector := p.detector[req.Mode]
	if p.source == nil {
		for i := range slots {
			slots[i].Conflicts = []conflict.Interval{}
			p.metrics.RecordConflictCheck(0)
		}
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for i := range slots {
		slot := &slots[i]
		g.Go(func() error {
			iv := slot.Interval
			if req.Reserve {
				conflicts, err := p.source.(storage.Reserver).Reserve(ctx, iv, detector)
				if err != nil {
					p.metrics.RecordSourceError()
					return fmt.Errorf("reserve %s: %w", iv.Start.Format(time.RFC3339), err)
				}
				if conflicts == nil {
					conflicts = []conflict.Interval{}
				}
				slot.Conflicts = conflicts
				slot.Reserved = len(conflicts) == 0
				p.metrics.RecordConflictCheck(len(conflicts))
				return nil
			}

			existing, err := p.source.Overlapping(ctx, iv.Start, iv.End)
			if err != nil {
				p.metrics.RecordSourceError()
				return fmt.Errorf("look up %s: %w", iv.Start.Format(time.RFC3339), err)
			}
			slot.Conflicts = detector.FindConflicts(iv, existing)
			p.metrics.RecordConflictCheck(len(slot.Conflicts))
			return nil
		})
	}
	return g.Wait()
}

func selfOverlaps(slots []Slot) bool {
	for i := 1; i < len(slots); i++ {
		if conflict.Overlaps(slots[i-1].Interval, slots[i].Interval) {
			return true
		}
	}
	return false
}
