package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidRule is wrapped by every rule construction failure.
	ErrInvalidRule = errors.New("invalid recurrence rule")
	// ErrNoMatchingWeekInMonth is returned by the monthly week-of-month step when the
	// target month has no such week (e.g. no 5th Friday).
	ErrNoMatchingWeekInMonth = errors.New("no matching week in month")
	// ErrUnsupportedRRule is returned when an RRULE uses features with no Rule equivalent.
	ErrUnsupportedRRule = errors.New("unsupported RRULE")
)

// ValidationError describes a rejected rule field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRule, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRule
}

// MissingWeekError carries the month for which a week-of-month step had no match.
type MissingWeekError struct {
	Year        int
	Month       time.Month
	WeekOfMonth int
}

func (e *MissingWeekError) Error() string {
	return fmt.Sprintf("%s: week %d of %s %d", ErrNoMatchingWeekInMonth, e.WeekOfMonth, e.Month, e.Year)
}

func (e *MissingWeekError) Unwrap() error {
	return ErrNoMatchingWeekInMonth
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NewRule validates p and returns an immutable Rule. Malformed input is rejected,
// never coerced.
func NewRule(p RuleParams) (Rule, error) {
	switch p.Kind {
	case Daily, Weekly, Monthly, Yearly:
	case KindUnset:
		return Rule{}, invalid("kind", "is required")
	default:
		return Rule{}, invalid("kind", "unknown kind %d", int(p.Kind))
	}

	if p.Interval < 1 {
		return Rule{}, invalid("interval", "must be at least 1, got %d", p.Interval)
	}

	var days WeekdaySet
	for _, d := range p.DaysOfWeek {
		if d < time.Sunday || d > time.Saturday {
			return Rule{}, invalid("daysOfWeek", "unknown weekday %d", int(d))
		}
		days = days.With(d)
	}

	if dom, ok := p.DayOfMonth.Get(); ok && (dom < 1 || dom > 31) {
		return Rule{}, invalid("dayOfMonth", "must be between 1 and 31, got %d", dom)
	}
	if wom, ok := p.WeekOfMonth.Get(); ok {
		if wom < 1 || wom > 5 {
			return Rule{}, invalid("weekOfMonth", "must be between 1 and 5, got %d", wom)
		}
		if p.Kind == Monthly && days.Empty() {
			return Rule{}, invalid("weekOfMonth", "requires daysOfWeek")
		}
	}
	if moy, ok := p.MonthOfYear.Get(); ok && (moy < 1 || moy > 12) {
		return Rule{}, invalid("monthOfYear", "must be between 1 and 12, got %d", moy)
	}

	start, hasStart := p.RangeStart.Get()
	end, hasEnd := p.RangeEnd.Get()
	if hasStart && hasEnd && civilDay(end) < civilDay(start) {
		return Rule{}, invalid("rangeEnd", "%s is before rangeStart %s",
			end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	if limit, ok := p.MaxOccurrences.Get(); ok && limit < 1 {
		return Rule{}, invalid("maxOccurrences", "must be at least 1, got %d", limit)
	}

	return Rule{
		kind:           p.Kind,
		interval:       p.Interval,
		days:           days,
		dayOfMonth:     p.DayOfMonth,
		weekOfMonth:    p.WeekOfMonth,
		monthOfYear:    p.MonthOfYear,
		rangeStart:     p.RangeStart,
		rangeEnd:       p.RangeEnd,
		maxOccurrences: p.MaxOccurrences,
	}, nil
}

// MustRule is like NewRule but panics on invalid input. Intended for tests and
// package-level fixtures.
func MustRule(p RuleParams) Rule {
	r, err := NewRule(p)
	if err != nil {
		panic(err)
	}
	return r
}

// String returns a stable, human-readable fingerprint of the rule.
func (r Rule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d", r.kind, r.interval)
	if !r.days.Empty() {
		fmt.Fprintf(&b, " days=%s", r.days)
	}
	if v, ok := r.dayOfMonth.Get(); ok {
		fmt.Fprintf(&b, " dom=%d", v)
	}
	if v, ok := r.weekOfMonth.Get(); ok {
		fmt.Fprintf(&b, " wom=%d", v)
	}
	if v, ok := r.monthOfYear.Get(); ok {
		fmt.Fprintf(&b, " moy=%d", v)
	}
	if v, ok := r.rangeStart.Get(); ok {
		fmt.Fprintf(&b, " from=%s", v.Format(time.DateOnly))
	}
	if v, ok := r.rangeEnd.Get(); ok {
		fmt.Fprintf(&b, " until=%s", v.Format(time.DateOnly))
	}
	if v, ok := r.maxOccurrences.Get(); ok {
		fmt.Fprintf(&b, " max=%d", v)
	}
	return b.String()
}
