package recurrence

import (
	"strings"
	"time"

	"github.com/samber/mo"
)

// Kind is the repeat unit of a rule. The set is closed.
type Kind int

const (
	KindUnset Kind = iota
	Daily
	Weekly
	Monthly
	Yearly
)

// String provides a human-readable representation of the Kind.
func (k Kind) String() string {
	switch k {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Yearly:
		return "yearly"
	default:
		return "unset"
	}
}

// ParseKind maps a case-insensitive name ("daily", "WEEKLY", ...) to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return Daily, true
	case "weekly":
		return Weekly, true
	case "monthly":
		return Monthly, true
	case "yearly":
		return Yearly, true
	}
	return KindUnset, false
}

// WeekdaySet is a set of weekdays stored as a bitmask (bit n = time.Weekday(n)).
type WeekdaySet uint8

// NewWeekdaySet builds a set from the given weekdays.
func NewWeekdaySet(days ...time.Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		s = s.With(d)
	}
	return s
}

// With returns a copy of the set including d.
func (s WeekdaySet) With(d time.Weekday) WeekdaySet {
	if d < time.Sunday || d > time.Saturday {
		return s
	}
	return s | 1<<uint(d)
}

// Has reports whether d is in the set.
func (s WeekdaySet) Has(d time.Weekday) bool {
	return s&(1<<uint(d)) != 0
}

// Empty reports whether the set has no days.
func (s WeekdaySet) Empty() bool {
	return s == 0
}

// Len returns the number of days in the set.
func (s WeekdaySet) Len() int {
	n := 0
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			n++
		}
	}
	return n
}

// Days lists the set's weekdays in Sunday..Saturday order.
func (s WeekdaySet) Days() []time.Weekday {
	days := make([]time.Weekday, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, 7)
	for _, d := range s.Days() {
		names = append(names, d.String()[:3])
	}
	return strings.Join(names, ",")
}

// ParseWeekday accepts full or three-letter English day names and RFC 5545 two-letter
// codes, case-insensitively.
func ParseWeekday(s string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sunday", "sun", "su":
		return time.Sunday, true
	case "monday", "mon", "mo":
		return time.Monday, true
	case "tuesday", "tue", "tu":
		return time.Tuesday, true
	case "wednesday", "wed", "we":
		return time.Wednesday, true
	case "thursday", "thu", "th":
		return time.Thursday, true
	case "friday", "fri", "fr":
		return time.Friday, true
	case "saturday", "sat", "sa":
		return time.Saturday, true
	}
	return time.Sunday, false
}

// RuleParams is the mutable input used to build a Rule. Unset optional fields are
// mo.None.
type RuleParams struct {
	Kind     Kind
	Interval int

	// DaysOfWeek is used by Weekly rules, and by Monthly rules together with WeekOfMonth.
	DaysOfWeek []time.Weekday

	DayOfMonth  mo.Option[int] // 1-31, Monthly only
	WeekOfMonth mo.Option[int] // 1-5, Monthly only
	MonthOfYear mo.Option[int] // 1-12, reserved for Yearly refinement

	// Active period. Only the date component is significant.
	RangeStart mo.Option[time.Time]
	RangeEnd   mo.Option[time.Time]

	MaxOccurrences mo.Option[int]
}

// Rule is a validated, immutable recurrence rule. Build one with NewRule.
type Rule struct {
	kind           Kind
	interval       int
	days           WeekdaySet
	dayOfMonth     mo.Option[int]
	weekOfMonth    mo.Option[int]
	monthOfYear    mo.Option[int]
	rangeStart     mo.Option[time.Time]
	rangeEnd       mo.Option[time.Time]
	maxOccurrences mo.Option[int]
}

// Kind returns the rule's frequency.
func (r Rule) Kind() Kind { return r.kind }

// Interval returns the step multiplier, at least 1.
func (r Rule) Interval() int { return r.interval }

// DaysOfWeek returns the weekday set; empty means the start's weekday.
func (r Rule) DaysOfWeek() WeekdaySet { return r.days }

// DayOfMonth returns the monthly anchor day, clamped to short months.
func (r Rule) DayOfMonth() mo.Option[int] { return r.dayOfMonth }

// WeekOfMonth returns the 1-based week for monthly nth-weekday rules.
func (r Rule) WeekOfMonth() mo.Option[int] { return r.weekOfMonth }

// MonthOfYear is validated but not used by expansion or RRULE export.
func (r Rule) MonthOfYear() mo.Option[int] { return r.monthOfYear }

// RangeStart returns the first day of the active period.
func (r Rule) RangeStart() mo.Option[time.Time] { return r.rangeStart }

// RangeEnd returns the last day of the active period, inclusive.
func (r Rule) RangeEnd() mo.Option[time.Time] { return r.rangeEnd }

// MaxOccurrences returns the series length cap.
func (r Rule) MaxOccurrences() mo.Option[int] { return r.maxOccurrences }

// Params returns the rule's fields as RuleParams, e.g. to derive a modified rule.
func (r Rule) Params() RuleParams {
	return RuleParams{
		Kind:           r.kind,
		Interval:       r.interval,
		DaysOfWeek:     r.days.Days(),
		DayOfMonth:     r.dayOfMonth,
		WeekOfMonth:    r.weekOfMonth,
		MonthOfYear:    r.monthOfYear,
		RangeStart:     r.rangeStart,
		RangeEnd:       r.rangeEnd,
		MaxOccurrences: r.maxOccurrences,
	}
}

// InActivePeriod reports whether t's date lies within [RangeStart, RangeEnd]. A
// missing bound is unbounded on that side.
func (r Rule) InActivePeriod(t time.Time) bool {
	day := civilDay(t)
	if start, ok := r.rangeStart.Get(); ok && day < civilDay(start) {
		return false
	}
	if end, ok := r.rangeEnd.Get(); ok && day > civilDay(end) {
		return false
	}
	return true
}
