/*
Package recurrence expands recurrence rules into ordered occurrence instants.

# Basic Usage

Build a validated Rule and expand it from a start instant:

	rule, err := recurrence.NewRule(recurrence.RuleParams{
		Kind:       recurrence.Weekly,
		Interval:   1,
		DaysOfWeek: []time.Weekday{time.Monday, time.Wednesday, time.Friday},
	})
	if err != nil {
		return err
	}
	engine := recurrence.NewEngine()
	defer engine.Close()
	occurrences, err := engine.Expand(start, rule, 10)

The start instant is itself the first candidate. Expansion stops at the cap, at the
end of the rule's RangeEnd day, or one year after the engine clock when the rule has
no RangeEnd.

# Date Arithmetic

Steps keep the wall-clock time and location of the previous candidate. Month and year
steps clamp the day to the target month's length, so a monthly rule on the 31st
yields Feb 29 in a leap year. No daylight-saving correction is attempted.

# Week-of-Month Gaps

A monthly rule such as "5th Friday" has no candidate in some months. The engine's
MissingWeekPolicy either skips such months (SkipMonth, the default) or stops the
series and returns a *MissingWeekError.

# Interop

ParseRRule and Rule.RRule convert to and from RFC 5545 RRULE values for the subset
of RRULE the engine reproduces. ExpandToCalendar, SeriesCalendar and ComponentRule
bridge to go-ical components, and EncodeXCal writes RFC 6321 xCal.
*/
package recurrence
