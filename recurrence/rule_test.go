package recurrence

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRule_Validation(t *testing.T) {
	tests := []struct {
		name  string
		p     RuleParams
		field string
	}{
		{"missing kind", RuleParams{Interval: 1}, "kind"},
		{"unknown kind", RuleParams{Kind: Kind(42), Interval: 1}, "kind"},
		{"zero interval", RuleParams{Kind: Daily}, "interval"},
		{"negative interval", RuleParams{Kind: Daily, Interval: -2}, "interval"},
		{"bad weekday", RuleParams{Kind: Weekly, Interval: 1, DaysOfWeek: []time.Weekday{7}}, "daysOfWeek"},
		{"day of month zero", RuleParams{Kind: Monthly, Interval: 1, DayOfMonth: mo.Some(0)}, "dayOfMonth"},
		{"day of month 32", RuleParams{Kind: Monthly, Interval: 1, DayOfMonth: mo.Some(32)}, "dayOfMonth"},
		{"week of month 6", RuleParams{Kind: Monthly, Interval: 1, WeekOfMonth: mo.Some(6), DaysOfWeek: []time.Weekday{time.Monday}}, "weekOfMonth"},
		{"week of month without days", RuleParams{Kind: Monthly, Interval: 1, WeekOfMonth: mo.Some(2)}, "weekOfMonth"},
		{"month of year 13", RuleParams{Kind: Yearly, Interval: 1, MonthOfYear: mo.Some(13)}, "monthOfYear"},
		{
			"range end before start",
			RuleParams{
				Kind:       Daily,
				Interval:   1,
				RangeStart: mo.Some(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)),
				RangeEnd:   mo.Some(time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)),
			},
			"rangeEnd",
		},
		{"zero max occurrences", RuleParams{Kind: Daily, Interval: 1, MaxOccurrences: mo.Some(0)}, "maxOccurrences"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRule(tt.p)
			require.ErrorIs(t, err, ErrInvalidRule)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestNewRule_Accepts(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	valid := []RuleParams{
		{Kind: Daily, Interval: 1},
		{Kind: Weekly, Interval: 3, DaysOfWeek: []time.Weekday{time.Saturday, time.Sunday}},
		{Kind: Monthly, Interval: 1, DayOfMonth: mo.Some(31)},
		{Kind: Monthly, Interval: 1, WeekOfMonth: mo.Some(5), DaysOfWeek: []time.Weekday{time.Friday}},
		{Kind: Yearly, Interval: 1, MonthOfYear: mo.Some(2)},
		{Kind: Daily, Interval: 1, RangeStart: mo.Some(day), RangeEnd: mo.Some(day)},
		{Kind: Daily, Interval: 1, MaxOccurrences: mo.Some(1)},
	}

	for _, p := range valid {
		rule, err := NewRule(p)
		require.NoError(t, err, "params %+v", p)
		assert.Equal(t, p.Kind, rule.Kind())
		assert.Equal(t, p.Interval, rule.Interval())
	}
}

func TestMustRule_Panics(t *testing.T) {
	assert.Panics(t, func() { MustRule(RuleParams{Kind: Daily}) })
}

func TestRule_ParamsRoundTrip(t *testing.T) {
	p := RuleParams{
		Kind:           Weekly,
		Interval:       2,
		DaysOfWeek:     []time.Weekday{time.Monday, time.Thursday},
		RangeEnd:       mo.Some(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)),
		MaxOccurrences: mo.Some(10),
	}
	rule := MustRule(p)

	again := MustRule(rule.Params())
	assert.Equal(t, rule, again)
	assert.Equal(t, NewWeekdaySet(time.Monday, time.Thursday), rule.DaysOfWeek())
}

func TestRule_String(t *testing.T) {
	rule := MustRule(RuleParams{
		Kind:           Monthly,
		Interval:       2,
		DaysOfWeek:     []time.Weekday{time.Friday, time.Monday},
		WeekOfMonth:    mo.Some(3),
		RangeStart:     mo.Some(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		MaxOccurrences: mo.Some(4),
	})
	assert.Equal(t, "monthly/2 days=Mon,Fri wom=3 from=2024-01-01 max=4", rule.String())
	assert.Equal(t, "daily/1", MustRule(RuleParams{Kind: Daily, Interval: 1}).String())
}

func TestRule_InActivePeriod(t *testing.T) {
	rule := MustRule(RuleParams{
		Kind:       Daily,
		Interval:   1,
		RangeStart: mo.Some(time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC)),
		RangeEnd:   mo.Some(time.Date(2024, 3, 12, 6, 0, 0, 0, time.UTC)),
	})

	tests := []struct {
		at   time.Time
		want bool
	}{
		{time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC), false},
		{time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), true},
		{time.Date(2024, 3, 12, 23, 59, 0, 0, time.UTC), true},
		{time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rule.InActivePeriod(tt.at), tt.at.String())
	}

	unbounded := MustRule(RuleParams{Kind: Daily, Interval: 1})
	assert.True(t, unbounded.InActivePeriod(time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"daily": Daily, " WEEKLY ": Weekly, "Monthly": Monthly, "yearly": Yearly} {
		got, ok := ParseKind(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
		assert.Equal(t, want, MustRule(RuleParams{Kind: got, Interval: 1}).Kind())
	}
	_, ok := ParseKind("hourly")
	assert.False(t, ok)
	assert.Equal(t, "unset", KindUnset.String())
}

func TestParseWeekday(t *testing.T) {
	for _, in := range []string{"friday", "Fri", "FR"} {
		got, ok := ParseWeekday(in)
		assert.True(t, ok, in)
		assert.Equal(t, time.Friday, got)
	}
	_, ok := ParseWeekday("funday")
	assert.False(t, ok)
}

func TestWeekdaySet(t *testing.T) {
	s := NewWeekdaySet(time.Wednesday, time.Monday, time.Wednesday)
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(time.Monday))
	assert.False(t, s.Has(time.Sunday))
	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, s.Days())
	assert.Equal(t, "Mon,Wed", s.String())
	assert.Equal(t, s, s.With(time.Weekday(9)))
	assert.True(t, WeekdaySet(0).Empty())
}
