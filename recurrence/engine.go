package recurrence

import (
	"errors"
	"time"
)

// Engine expands recurrence rules into occurrence instants. An Engine without a cache
// holds no mutable state; with a cache it is safe for concurrent use and must be
// closed.
type Engine struct {
	cache  *RecurrenceCache
	config EngineConfig
	step   stepPolicy
}

// NewEngine creates a new recurrence engine instance using DefaultEngineConfig.
func NewEngine() *Engine {
	return NewEngineWithConfig(DefaultEngineConfig)
}

// NewEngineWithoutCache creates an engine that never caches.
func NewEngineWithoutCache() *Engine {
	return NewEngineWithConfig(DisabledCacheConfig)
}

// Close stops the cache cleanup goroutine, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// ExpandOption tunes a single Expand call.
type ExpandOption func(*expandOptions)

type expandOptions struct {
	trace   TraceFunc
	horizon time.Time
}

// WithTrace attaches a trace callback to one expansion.
func WithTrace(fn TraceFunc) ExpandOption {
	return func(o *expandOptions) {
		o.trace = chain(o.trace, fn)
	}
}

// WithHorizon overrides the default horizon of a rule without RangeEnd. Occurrences
// must start strictly before h.
func WithHorizon(h time.Time) ExpandOption {
	return func(o *expandOptions) {
		o.horizon = h
	}
}

// Expand materializes the occurrences of rule starting at start, which is itself the
// first candidate. The result is strictly increasing and holds at most
// min(maxToGenerate, rule.MaxOccurrences) instants, each inside the rule's active
// period and before the horizon.
//
// A non-nil error is returned only for a week-of-month gap under the StopSeries
// policy; the occurrences found before the gap are returned with it.
func (e *Engine) Expand(start time.Time, rule Rule, maxToGenerate int, opts ...ExpandOption) ([]time.Time, error) {
	o := expandOptions{trace: e.config.Trace}
	for _, opt := range opts {
		opt(&o)
	}
	if maxToGenerate <= 0 {
		return []time.Time{}, nil
	}
	if rule.kind == KindUnset {
		return nil, invalid("kind", "is required")
	}

	limit := maxToGenerate
	if m, ok := rule.maxOccurrences.Get(); ok && m < limit {
		limit = m
	}
	horizon := e.horizon(rule, o.horizon)

	if e.cache == nil {
		return e.expand(start, rule, limit, horizon, o.trace)
	}

	if cached, ok := e.cache.Get(opExpand, start, rule, limit, horizon); ok {
		emit(o.trace, TraceEvent{Kind: TraceCacheHit, Rule: rule.kind, At: start, Emitted: len(cached)})
		return cached, nil
	}
	emit(o.trace, TraceEvent{Kind: TraceCacheMiss, Rule: rule.kind, At: start})

	occurrences, err := e.expand(start, rule, limit, horizon, o.trace)
	if err == nil {
		e.cache.Set(opExpand, start, rule, limit, horizon, occurrences)
	}
	return occurrences, err
}

// Horizon returns the exclusive upper bound Expand would use for rule right now.
// Without RangeEnd it is the start of the day HorizonYears after Clock(), so calls
// made on the same day share cache entries.
func (e *Engine) Horizon(rule Rule) time.Time {
	return e.horizon(rule, time.Time{})
}

func (e *Engine) horizon(rule Rule, override time.Time) time.Time {
	if end, ok := rule.rangeEnd.Get(); ok {
		return startOfNextDay(end)
	}
	if !override.IsZero() {
		return override
	}
	h := e.config.Clock().AddDate(e.config.HorizonYears, 0, 0)
	y, m, d := h.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, h.Location())
}

func (e *Engine) expand(start time.Time, rule Rule, limit int, horizon time.Time, trace TraceFunc) ([]time.Time, error) {
	occurrences := make([]time.Time, 0, min(limit, 64))
	current := start
	steps := 0

	for {
		if !current.Before(horizon) {
			emit(trace, TraceEvent{Kind: TraceHorizonReached, Rule: rule.kind, At: current, Steps: steps, Emitted: len(occurrences)})
			return occurrences, nil
		}
		if rule.InActivePeriod(current) {
			occurrences = append(occurrences, current)
			emit(trace, TraceEvent{Kind: TraceEmit, Rule: rule.kind, At: current, Steps: steps, Emitted: len(occurrences)})
			// Stop before stepping again so a later gap cannot fail a complete result.
			if len(occurrences) >= limit {
				emit(trace, TraceEvent{Kind: TraceCapReached, Rule: rule.kind, At: current, Steps: steps, Emitted: len(occurrences)})
				return occurrences, nil
			}
		} else {
			emit(trace, TraceEvent{Kind: TraceOutOfRange, Rule: rule.kind, At: current, Steps: steps, Emitted: len(occurrences)})
		}

		next, stop, err := e.advance(current, rule, horizon, &steps, len(occurrences), trace)
		if err != nil || stop {
			return occurrences, err
		}
		current = next
	}
}

// advance computes the candidate after current, applying the missing-week policy.
// stop reports that the series ended without error.
func (e *Engine) advance(current time.Time, rule Rule, horizon time.Time, steps *int, emitted int, trace TraceFunc) (next time.Time, stop bool, err error) {
	cursor := current
	for {
		if e.config.MaxSteps > 0 && *steps >= e.config.MaxSteps {
			emit(trace, TraceEvent{Kind: TraceStepLimit, Rule: rule.kind, At: cursor, Steps: *steps, Emitted: emitted})
			return time.Time{}, true, nil
		}
		*steps++

		candidate, note, stepErr := e.step.next(cursor, rule)
		if stepErr == nil {
			if note == noteWeeklyFallback {
				emit(trace, TraceEvent{Kind: TraceWeeklyFallback, Rule: rule.kind, At: candidate, Steps: *steps, Emitted: emitted})
			}
			if !candidate.After(current) {
				// Steps always move forward for validated rules; guard against a stuck loop.
				return time.Time{}, true, nil
			}
			return candidate, false, nil
		}

		var missing *MissingWeekError
		if !errors.As(stepErr, &missing) {
			return time.Time{}, true, stepErr
		}
		if e.config.MissingWeek == StopSeries {
			emit(trace, TraceEvent{Kind: TraceMissingWeekStopped, Rule: rule.kind, At: cursor, Steps: *steps, Emitted: emitted, Err: stepErr})
			return time.Time{}, true, stepErr
		}
		emit(trace, TraceEvent{Kind: TraceMissingWeekSkipped, Rule: rule.kind, At: cursor, Steps: *steps, Emitted: emitted, Err: stepErr})

		// Continue from the month that had no match.
		cursor = addMonths(cursor, rule.interval)
		if !cursor.Before(horizon) {
			emit(trace, TraceEvent{Kind: TraceHorizonReached, Rule: rule.kind, At: cursor, Steps: *steps, Emitted: emitted})
			return time.Time{}, true, nil
		}
	}
}

// Next returns the candidate that follows current under rule. Week-of-month gaps are
// reported as *MissingWeekError regardless of the engine's policy.
func (e *Engine) Next(current time.Time, rule Rule) (time.Time, error) {
	if rule.kind == KindUnset {
		return time.Time{}, invalid("kind", "is required")
	}
	next, _, err := e.step.next(current, rule)
	return next, err
}

func emit(trace TraceFunc, ev TraceEvent) {
	if trace != nil {
		trace(ev)
	}
}
