package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddMonths(t *testing.T) {
	tests := []struct {
		in   time.Time
		n    int
		want time.Time
	}{
		{at(2024, 1, 31, 10, 0), 1, at(2024, 2, 29, 10, 0)},
		{at(2023, 1, 31, 10, 0), 1, at(2023, 2, 28, 10, 0)},
		{at(2024, 3, 31, 10, 0), -1, at(2024, 2, 29, 10, 0)},
		{at(2024, 11, 30, 0, 0), 3, at(2025, 2, 28, 0, 0)},
		{at(2024, 1, 15, 0, 0), -13, at(2022, 12, 15, 0, 0)},
		{at(2024, 5, 31, 0, 0), 12, at(2025, 5, 31, 0, 0)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, addMonths(tt.in, tt.n), "%s %+d months", tt.in, tt.n)
	}
}

func TestAddYears(t *testing.T) {
	assert.Equal(t, at(2025, 2, 28, 8, 0), addYears(at(2024, 2, 29, 8, 0), 1))
	assert.Equal(t, at(2028, 2, 29, 8, 0), addYears(at(2024, 2, 29, 8, 0), 4))
}

func TestNthWeekdayOfMonth(t *testing.T) {
	fridays := NewWeekdaySet(time.Friday)

	got, err := nthWeekdayOfMonth(at(2024, 3, 1, 9, 0), 5, fridays)
	require.NoError(t, err)
	assert.Equal(t, at(2024, 3, 29, 9, 0), got)

	_, err = nthWeekdayOfMonth(at(2024, 4, 1, 9, 0), 5, fridays)
	var missing *MissingWeekError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, time.April, missing.Month)
	assert.Equal(t, 2024, missing.Year)

	// With several days the earliest matching day anchors the week count.
	got, err = nthWeekdayOfMonth(at(2024, 2, 20, 9, 0), 1, NewWeekdaySet(time.Monday, time.Thursday))
	require.NoError(t, err)
	assert.Equal(t, at(2024, 2, 1, 9, 0), got)
}

func TestStepPolicy_WeeklyScanCoversInterval(t *testing.T) {
	p := stepPolicy{weeklyScanDays: 7}
	rule := MustRule(RuleParams{Kind: Weekly, Interval: 2, DaysOfWeek: []time.Weekday{time.Monday}})

	next, note, err := p.next(at(2024, 1, 15, 9, 0), rule)
	require.NoError(t, err)
	assert.Equal(t, noteNone, note)
	assert.Equal(t, at(2024, 1, 22, 9, 0), next)
}

func TestStepPolicy_PanicsOnUnvalidatedKind(t *testing.T) {
	assert.Panics(t, func() {
		_, _, _ = stepPolicy{weeklyScanDays: 7}.next(fixedNow, Rule{kind: Kind(9), interval: 1})
	})
}

func TestCivilDayOrdersDates(t *testing.T) {
	assert.Less(t, civilDay(at(2023, 12, 31, 23, 59)), civilDay(at(2024, 1, 1, 0, 0)))
	assert.Equal(t, civilDay(at(2024, 1, 1, 0, 0)), civilDay(at(2024, 1, 1, 23, 59)))
}
