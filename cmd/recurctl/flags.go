package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// parseTime accepts RFC 3339 or a local date/time, interpreted in loc.
func parseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q", s)
}

func optionalTime(s string, loc *time.Location) (mo.Option[time.Time], error) {
	if s == "" {
		return mo.None[time.Time](), nil
	}
	t, err := parseTime(s, loc)
	if err != nil {
		return mo.None[time.Time](), err
	}
	return mo.Some(t), nil
}

func optionalInt(n int) mo.Option[int] {
	if n == 0 {
		return mo.None[int]()
	}
	return mo.Some(n)
}

// ruleFlags binds the flags that describe a recurrence rule.
type ruleFlags struct {
	rrule       string
	kind        string
	interval    int
	days        []string
	dayOfMonth  int
	weekOfMonth int
	month       int
	from        string
	until       string
	count       int
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.rrule, "rrule", "", "RFC 5545 RRULE, instead of the flags below")
	fs.StringVar(&f.kind, "kind", "", "Repeat unit: daily, weekly, monthly, yearly")
	fs.IntVar(&f.interval, "interval", 1, "Repeat every N units")
	fs.StringSliceVar(&f.days, "days", nil, "Weekdays, e.g. mon,wed,fri")
	fs.IntVar(&f.dayOfMonth, "day-of-month", 0, "Day of month (1-31, monthly)")
	fs.IntVar(&f.weekOfMonth, "week-of-month", 0, "Week of month (1-5, monthly with one weekday)")
	fs.IntVar(&f.month, "month", 0, "Month of year (1-12, yearly)")
	fs.StringVar(&f.from, "from", "", "First active date")
	fs.StringVar(&f.until, "until", "", "Last active date")
	fs.IntVar(&f.count, "count", 0, "Maximum number of occurrences")
}

func (f *ruleFlags) rule(loc *time.Location) (recurrence.Rule, error) {
	if f.rrule != "" {
		return recurrence.ParseRRule(f.rrule)
	}

	kind, ok := recurrence.ParseKind(f.kind)
	if !ok {
		return recurrence.Rule{}, fmt.Errorf("--kind must be daily, weekly, monthly or yearly, got %q", f.kind)
	}

	p := recurrence.RuleParams{
		Kind:           kind,
		Interval:       f.interval,
		DayOfMonth:     optionalInt(f.dayOfMonth),
		WeekOfMonth:    optionalInt(f.weekOfMonth),
		MonthOfYear:    optionalInt(f.month),
		MaxOccurrences: optionalInt(f.count),
	}
	for _, d := range f.days {
		wd, ok := recurrence.ParseWeekday(d)
		if !ok {
			return recurrence.Rule{}, fmt.Errorf("unknown weekday %q", d)
		}
		p.DaysOfWeek = append(p.DaysOfWeek, wd)
	}

	var err error
	if p.RangeStart, err = optionalTime(f.from, loc); err != nil {
		return recurrence.Rule{}, fmt.Errorf("--from: %w", err)
	}
	if p.RangeEnd, err = optionalTime(f.until, loc); err != nil {
		return recurrence.Rule{}, fmt.Errorf("--until: %w", err)
	}

	return recurrence.NewRule(p)
}

// spanFlags binds --start with either --end or --duration.
type spanFlags struct {
	start    string
	end      string
	duration time.Duration
}

func (f *spanFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.start, "start", "", "Start of the (first) interval")
	fs.StringVar(&f.end, "end", "", "End of the (first) interval")
	fs.DurationVar(&f.duration, "duration", 0, "Length of each interval, instead of --end")
	_ = cmd.MarkFlagRequired("start")
	cmd.MarkFlagsMutuallyExclusive("end", "duration")
}

func (f *spanFlags) parse(loc *time.Location) (time.Time, mo.Option[time.Time], error) {
	start, err := parseTime(f.start, loc)
	if err != nil {
		return time.Time{}, mo.None[time.Time](), fmt.Errorf("--start: %w", err)
	}
	if f.duration != 0 {
		return start, mo.Some(start.Add(f.duration)), nil
	}
	end, err := optionalTime(f.end, loc)
	if err != nil {
		return time.Time{}, mo.None[time.Time](), fmt.Errorf("--end: %w", err)
	}
	return start, end, nil
}
