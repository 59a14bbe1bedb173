package recurrence

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/cyp0633/librecur/internal/xcal"
)

// ErrNoRecurrence is returned by ComponentRule for a component without RRULE.
var ErrNoRecurrence = errors.New("component has no RRULE")

// ProductID is written as PRODID on generated calendars.
const ProductID = "-//cyp0633//librecur//EN"

// Series is a recurring item: its first occurrence, optional end and rule.
type Series struct {
	UID     string
	Summary string
	Start   time.Time
	End     mo.Option[time.Time]
	Rule    Rule
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, ProductID)
	return cal
}

// ExpandToCalendar materializes up to maxToGenerate occurrences of series as
// standalone VEVENTs. Occurrence UIDs are derived from the series UID and the
// occurrence start, so repeated exports are stable.
func (e *Engine) ExpandToCalendar(series Series, maxToGenerate int, opts ...ExpandOption) (*ical.Calendar, error) {
	occurrences, err := e.Expand(series.Start, series.Rule, maxToGenerate, opts...)
	if err != nil {
		return nil, fmt.Errorf("expand series %q: %w", series.UID, err)
	}

	base := series.UID
	if base == "" {
		base = uuid.NewString()
	}
	stamp := e.config.Clock().UTC()

	cal := newCalendar()
	for _, occ := range occurrences {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, occurrenceUID(base, occ))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
		event.Props.SetDateTime(ical.PropDateTimeStart, occ)
		event.Props.SetDateTime(ical.PropDateTimeEnd, OccurrenceEnd(occ, series.Start, series.End))
		if series.Summary != "" {
			event.Props.SetText(ical.PropSummary, series.Summary)
		}
		if series.UID != "" {
			event.Props.SetText(ical.PropRelatedTo, series.UID)
		}
		cal.Children = append(cal.Children, event.Component)
	}
	return cal, nil
}

func occurrenceUID(base string, occ time.Time) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(base+"/"+occ.Format(time.RFC3339Nano))).String()
}

// SeriesCalendar renders series as a calendar holding one VEVENT with an RRULE.
func (e *Engine) SeriesCalendar(series Series) (*ical.Calendar, error) {
	rr, err := series.Rule.RRule(series.Start)
	if err != nil {
		return nil, fmt.Errorf("render RRULE: %w", err)
	}

	uid := series.UID
	if uid == "" {
		uid = uuid.NewString()
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uid)
	event.Props.SetDateTime(ical.PropDateTimeStamp, e.config.Clock().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, series.Start)
	if end, ok := series.End.Get(); ok {
		event.Props.SetDateTime(ical.PropDateTimeEnd, end)
	}
	if series.Summary != "" {
		event.Props.SetText(ical.PropSummary, series.Summary)
	}
	prop := ical.NewProp(ical.PropRecurrenceRule)
	prop.Value = rr
	event.Props.Set(prop)

	cal := newCalendar()
	cal.Children = append(cal.Children, event.Component)
	return cal, nil
}

// ComponentRule extracts a Series from a VEVENT or VTODO. Floating times are read
// in loc. The end comes from DTEND, then DURATION, then DUE for to-dos; it is None
// when the component has none of them.
func ComponentRule(comp *ical.Component, loc *time.Location) (Series, error) {
	series := Series{}

	prop := comp.Props.Get(ical.PropRecurrenceRule)
	if prop == nil || prop.Value == "" {
		return series, ErrNoRecurrence
	}
	rule, err := ParseRRule(prop.Value)
	if err != nil {
		return series, err
	}
	series.Rule = rule

	start, err := comp.Props.DateTime(ical.PropDateTimeStart, loc)
	if err != nil {
		return series, fmt.Errorf("read DTSTART: %w", err)
	}
	if start.IsZero() {
		return series, fmt.Errorf("component %s has no DTSTART", comp.Name)
	}
	series.Start = start

	if uid, err := comp.Props.Text(ical.PropUID); err == nil {
		series.UID = uid
	}
	if summary, err := comp.Props.Text(ical.PropSummary); err == nil {
		series.Summary = summary
	}

	if end, err := comp.Props.DateTime(ical.PropDateTimeEnd, loc); err == nil && !end.IsZero() {
		series.End = mo.Some(end)
	} else if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
		d, err := durationProp.Duration()
		if err != nil {
			return series, fmt.Errorf("read DURATION: %w", err)
		}
		series.End = mo.Some(start.Add(d))
	} else if comp.Name == ical.CompToDo {
		if due, err := comp.Props.DateTime(ical.PropDue, loc); err == nil && !due.IsZero() {
			series.End = mo.Some(due)
		}
	}

	return series, nil
}

// EncodeICS writes cal in iCalendar text form.
func EncodeICS(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("encode iCalendar: %w", err)
	}
	return nil
}

// EncodeXCal writes cal as an RFC 6321 xCal document.
func EncodeXCal(w io.Writer, cal *ical.Calendar) error {
	return xcal.Encode(w, toXCal(cal.Component))
}

func toXCal(comp *ical.Component) xcal.Component {
	out := xcal.Component{Name: comp.Name}

	names := make([]string, 0, len(comp.Props))
	for name := range comp.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, prop := range comp.Props[name] {
			p := xcal.Property{
				Name:  prop.Name,
				Type:  strings.ToLower(string(prop.ValueType())),
				Value: prop.Value,
			}
			if len(prop.Params) > 0 {
				p.Params = make(map[string][]string, len(prop.Params))
				for k, v := range prop.Params {
					p.Params[k] = append([]string(nil), v...)
				}
			}
			out.Properties = append(out.Properties, p)
		}
	}

	for _, child := range comp.Children {
		out.Children = append(out.Children, toXCal(child))
	}
	return out
}
