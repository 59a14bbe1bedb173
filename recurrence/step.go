package recurrence

import (
	"fmt"
	"time"
)

// stepPolicy holds the tunables the step function needs.
type stepPolicy struct {
	weeklyScanDays int
}

// next advances current by one step of rule. It is the single dispatch point over
// Kind. Time of day and location of current are kept; arithmetic is wall-clock.
func (p stepPolicy) next(current time.Time, rule Rule) (time.Time, stepNote, error) {
	n := rule.interval
	switch rule.kind {
	case Daily:
		return addDays(current, n), noteNone, nil

	case Weekly:
		if rule.days.Empty() {
			return addDays(current, 7*n), noteNone, nil
		}
		limit := p.weeklyScanDays * n
		candidate := addDays(current, 1)
		for i := 0; i < limit; i++ {
			if rule.days.Has(candidate.Weekday()) {
				return candidate, noteNone, nil
			}
			candidate = addDays(candidate, 1)
		}
		return addDays(current, 7*n), noteWeeklyFallback, nil

	case Monthly:
		if dom, ok := rule.dayOfMonth.Get(); ok {
			target := addMonths(current, n)
			return withDay(target, dom), noteNone, nil
		}
		if wom, ok := rule.weekOfMonth.Get(); ok && !rule.days.Empty() {
			t, err := nthWeekdayOfMonth(addMonths(current, n), wom, rule.days)
			return t, noteNone, err
		}
		return addMonths(current, n), noteNone, nil

	case Yearly:
		return addYears(current, n), noteNone, nil
	}

	// NewRule rejects every other kind.
	panic(fmt.Sprintf("recurrence: step on unvalidated kind %d", int(rule.kind)))
}

type stepNote int

const (
	noteNone stepNote = iota
	noteWeeklyFallback
)

// nthWeekdayOfMonth finds the first day of target's month whose weekday is in days
// and moves it forward (week-1) weeks. Spilling out of the month is reported as a
// *MissingWeekError.
func nthWeekdayOfMonth(target time.Time, week int, days WeekdaySet) (time.Time, error) {
	missing := &MissingWeekError{Year: target.Year(), Month: target.Month(), WeekOfMonth: week}

	first := withDay(target, 1)
	length := daysIn(target.Year(), target.Month())
	found := false
	for d := 0; d < length; d++ {
		if days.Has(first.Weekday()) {
			found = true
			break
		}
		first = addDays(first, 1)
	}
	if !found {
		return time.Time{}, missing
	}

	result := addDays(first, 7*(week-1))
	if result.Month() != target.Month() || result.Year() != target.Year() {
		return time.Time{}, missing
	}
	return result, nil
}

// addDays moves t by n calendar days keeping the wall clock.
func addDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// addMonths moves t by n months, clamping the day to the target month's length
// (Jan 31 + 1 month = Feb 28/29).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	ty := y + floorDiv(total, 12)
	tm := time.Month(floorMod(total, 12) + 1)
	if last := daysIn(ty, tm); d > last {
		d = last
	}
	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// addYears moves t by n years; Feb 29 becomes Feb 28 in non-leap target years.
func addYears(t time.Time, n int) time.Time {
	return addMonths(t, 12*n)
}

// withDay sets the day of month, clamped to the month's last day.
func withDay(t time.Time, day int) time.Time {
	if last := daysIn(t.Year(), t.Month()); day > last {
		day = last
	}
	return time.Date(t.Year(), t.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// civilDay orders calendar dates independently of clock and location.
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}

// startOfNextDay returns midnight after t's date in t's location.
func startOfNextDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location())
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func floorMod(a, b int) int {
	return a - floorDiv(a, b)*b
}
