package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/mo"
	"github.com/teambition/rrule-go"
)

var toRRuleWeekday = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// rrule-go numbers weekdays from Monday = 0.
func fromRRuleWeekday(wd rrule.Weekday) time.Weekday {
	return time.Weekday((wd.Day() + 1) % 7)
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedRRule, fmt.Sprintf(format, args...))
}

// ParseRRule converts an RFC 5545 RRULE value (with or without the "RRULE:" prefix)
// into a validated Rule. Only the subset the engine can reproduce is accepted:
// FREQ, INTERVAL, COUNT, UNTIL, BYDAY on weekly rules, BYDAY with an ordinal such
// as 2MO on monthly rules (mapped to WeekOfMonth and shared by every day), and a
// single positive BYMONTHDAY on monthly rules. BYMONTH is rejected because yearly
// steps keep the start's month.
func ParseRRule(s string) (Rule, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "RRULE:")
	opt, err := rrule.StrToROption(s)
	if err != nil {
		return Rule{}, fmt.Errorf("parse RRULE %q: %w", s, err)
	}

	p := RuleParams{Interval: max(opt.Interval, 1)}
	switch opt.Freq {
	case rrule.DAILY:
		p.Kind = Daily
	case rrule.WEEKLY:
		p.Kind = Weekly
	case rrule.MONTHLY:
		p.Kind = Monthly
	case rrule.YEARLY:
		p.Kind = Yearly
	default:
		return Rule{}, unsupported("frequency %s", opt.Freq)
	}

	switch {
	case len(opt.Bysetpos) > 0:
		return Rule{}, unsupported("BYSETPOS")
	case len(opt.Byyearday) > 0:
		return Rule{}, unsupported("BYYEARDAY")
	case len(opt.Byweekno) > 0:
		return Rule{}, unsupported("BYWEEKNO")
	case len(opt.Byhour) > 0 || len(opt.Byminute) > 0 || len(opt.Bysecond) > 0:
		return Rule{}, unsupported("time-of-day BY parts")
	case len(opt.Byeaster) > 0:
		return Rule{}, unsupported("BYEASTER")
	}

	if opt.Count > 0 {
		p.MaxOccurrences = mo.Some(opt.Count)
	}
	if !opt.Until.IsZero() {
		p.RangeEnd = mo.Some(opt.Until)
	}

	if len(opt.Bymonth) > 0 {
		return Rule{}, unsupported("BYMONTH %v", opt.Bymonth)
	}
	if len(opt.Bymonthday) > 0 && len(opt.Byweekday) > 0 {
		return Rule{}, unsupported("BYMONTHDAY combined with BYDAY")
	}

	ordinal := 0
	for i, wd := range opt.Byweekday {
		if i == 0 {
			ordinal = wd.N()
		} else if wd.N() != ordinal {
			return Rule{}, unsupported("BYDAY ordinals must match")
		}
		p.DaysOfWeek = append(p.DaysOfWeek, fromRRuleWeekday(wd))
	}
	switch {
	case len(opt.Byweekday) == 0:
	case p.Kind == Weekly && ordinal == 0:
	case p.Kind == Monthly && ordinal >= 1 && ordinal <= 5:
		p.WeekOfMonth = mo.Some(ordinal)
	default:
		return Rule{}, unsupported("BYDAY %v with FREQ=%s", opt.Byweekday, opt.Freq)
	}

	if len(opt.Bymonthday) > 0 {
		if p.Kind != Monthly || len(opt.Bymonthday) > 1 || opt.Bymonthday[0] < 1 {
			return Rule{}, unsupported("BYMONTHDAY %v with FREQ=%s", opt.Bymonthday, opt.Freq)
		}
		p.DayOfMonth = mo.Some(opt.Bymonthday[0])
	}

	return NewRule(p)
}

// RRule renders the rule as an RFC 5545 RRULE value for a series starting at
// dtstart. RRULE consumers skip months shorter than DayOfMonth where the engine
// clamps, so such rules export faithfully only for days up to 28.
func (r Rule) RRule(dtstart time.Time) (string, error) {
	opt, err := r.rruleOption(dtstart)
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

func (r Rule) rruleOption(dtstart time.Time) (rrule.ROption, error) {
	opt := rrule.ROption{Dtstart: dtstart, Interval: r.interval}
	switch r.kind {
	case Daily:
		opt.Freq = rrule.DAILY
	case Weekly:
		opt.Freq = rrule.WEEKLY
		if !r.days.Empty() && r.interval > 1 {
			return opt, unsupported("weekly day scan with interval %d", r.interval)
		}
	case Monthly:
		opt.Freq = rrule.MONTHLY
	case Yearly:
		opt.Freq = rrule.YEARLY
	default:
		return opt, invalid("kind", "is required")
	}

	if start, ok := r.rangeStart.Get(); ok && civilDay(start) > civilDay(dtstart) {
		return opt, unsupported("rangeStart after DTSTART")
	}
	if end, ok := r.rangeEnd.Get(); ok {
		opt.Until = startOfNextDay(end.In(dtstart.Location())).Add(-time.Second)
	}
	if n, ok := r.maxOccurrences.Get(); ok {
		opt.Count = n
	}

	wom, hasWeek := r.weekOfMonth.Get()
	if hasWeek && r.kind == Monthly && r.days.Len() > 1 {
		return opt, unsupported("week-of-month with %d weekdays", r.days.Len())
	}
	if r.kind == Weekly || (r.kind == Monthly && hasWeek) {
		for _, d := range r.days.Days() {
			wd := toRRuleWeekday[d]
			if hasWeek && r.kind == Monthly {
				wd = wd.Nth(wom)
			}
			opt.Byweekday = append(opt.Byweekday, wd)
		}
	}
	if dom, ok := r.dayOfMonth.Get(); ok && r.kind == Monthly {
		opt.Bymonthday = []int{dom}
	}
	if r.monthOfYear.IsPresent() {
		return opt, unsupported("monthOfYear")
	}
	return opt, nil
}
