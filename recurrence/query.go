package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
)

// ErrSeriesExhausted is returned when a query walked past MaxSteps without an answer.
var ErrSeriesExhausted = errors.New("recurrence series exhausted")

// DefaultOccurrenceDuration is the length given to an occurrence whose series has no
// end time.
const DefaultOccurrenceDuration = time.Hour

var farFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// The helpers below work on series positions: start and each instant reached by
// stepping from it. They ignore the active period and horizon, but honour MaxSteps
// and the missing-week policy.

// walk visits start and each following position until visit returns false.
func (e *Engine) walk(start time.Time, rule Rule, visit func(time.Time) bool) error {
	if rule.kind == KindUnset {
		return invalid("kind", "is required")
	}
	steps := 0
	current := start
	for visit(current) {
		next, stop, err := e.advance(current, rule, farFuture, &steps, 0, nil)
		if err != nil {
			return err
		}
		if stop {
			return ErrSeriesExhausted
		}
		current = next
	}
	return nil
}

// NthOccurrence returns the n-th (1-based) position of the series.
func (e *Engine) NthOccurrence(start time.Time, rule Rule, n int) (time.Time, error) {
	if n <= 0 {
		return time.Time{}, fmt.Errorf("occurrence number must be positive, got %d", n)
	}
	return e.Skip(start, rule, n-1)
}

// Skip returns the position reached after n steps from start.
func (e *Engine) Skip(start time.Time, rule Rule, n int) (time.Time, error) {
	var result time.Time
	i := 0
	err := e.walk(start, rule, func(t time.Time) bool {
		result = t
		i++
		return i <= n
	})
	if err != nil {
		return time.Time{}, err
	}
	return result, nil
}

// FirstOccurrenceAfter returns the first position strictly after t.
func (e *Engine) FirstOccurrenceAfter(t, start time.Time, rule Rule) (time.Time, error) {
	var result time.Time
	err := e.walk(start, rule, func(cur time.Time) bool {
		result = cur
		return !cur.After(t)
	})
	if err != nil {
		return time.Time{}, err
	}
	return result, nil
}

// LastOccurrenceBefore returns the last position at or before t, or None when t is
// before start.
func (e *Engine) LastOccurrenceBefore(t, start time.Time, rule Rule) (mo.Option[time.Time], error) {
	if t.Before(start) {
		return mo.None[time.Time](), nil
	}
	last := start
	err := e.walk(start, rule, func(cur time.Time) bool {
		if cur.After(t) {
			return false
		}
		last = cur
		return true
	})
	if err != nil {
		return mo.None[time.Time](), err
	}
	return mo.Some(last), nil
}

// CountOccurrences counts the positions in [start, end].
func (e *Engine) CountOccurrences(start, end time.Time, rule Rule) (int, error) {
	if start.After(end) {
		return 0, nil
	}
	count := 0
	err := e.walk(start, rule, func(cur time.Time) bool {
		if cur.After(end) {
			return false
		}
		count++
		return true
	})
	return count, err
}

// IsOccurrence reports whether t is a position of the series that starts at start.
func (e *Engine) IsOccurrence(t, start time.Time, rule Rule) (bool, error) {
	if t.Before(start) {
		return false, nil
	}
	found := false
	err := e.walk(start, rule, func(cur time.Time) bool {
		if cur.Equal(t) {
			found = true
		}
		return cur.Before(t)
	})
	return found, err
}

// OccurrenceEnd carries the series' duration over to an occurrence starting at
// occStart. A series without an end time lasts DefaultOccurrenceDuration.
func OccurrenceEnd(occStart, seriesStart time.Time, seriesEnd mo.Option[time.Time]) time.Time {
	end, ok := seriesEnd.Get()
	if !ok {
		return occStart.Add(DefaultOccurrenceDuration)
	}
	return occStart.Add(end.Sub(seriesStart))
}

// ApproximatePeriod is the nominal spacing between occurrences: months count as 30
// days and years as 365.
func ApproximatePeriod(rule Rule) time.Duration {
	day := 24 * time.Hour
	n := time.Duration(rule.interval)
	switch rule.kind {
	case Daily:
		return n * day
	case Weekly:
		return n * 7 * day
	case Monthly:
		return n * 30 * day
	case Yearly:
		return n * 365 * day
	}
	return day
}
