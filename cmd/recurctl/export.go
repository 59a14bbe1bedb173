package main

import (
	"fmt"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/emersion/go-ical"
	"github.com/spf13/cobra"
)

func (a *app) exportCmd() *cobra.Command {
	var (
		rf      ruleFlags
		span    spanFlags
		uid     string
		summary string
		format  string
		expand  int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a series as iCalendar or xCal",
		Example: `  recurctl export --kind weekly --days tue --start 2024-01-16T10:00 --duration 1h --summary Review
  recurctl export --rrule "FREQ=DAILY;COUNT=3" --start 2024-01-15T09:00 --expand 3 --format xcal`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := rf.rule(a.loc)
			if err != nil {
				return err
			}
			start, end, err := span.parse(a.loc)
			if err != nil {
				return err
			}
			series := recurrence.Series{
				UID:     uid,
				Summary: summary,
				Start:   start,
				End:     end,
				Rule:    rule,
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			var cal *ical.Calendar
			if expand > 0 {
				cal, err = engine.ExpandToCalendar(series, expand)
			} else {
				cal, err = engine.SeriesCalendar(series)
			}
			if err != nil {
				return err
			}

			switch format {
			case "ics":
				return recurrence.EncodeICS(a.stdout, cal)
			case "xcal":
				return recurrence.EncodeXCal(a.stdout, cal)
			}
			return fmt.Errorf("--format must be ics or xcal, got %q", format)
		},
	}

	rf.register(cmd)
	span.register(cmd)
	cmd.Flags().StringVar(&uid, "uid", "", "Series UID (random when empty)")
	cmd.Flags().StringVar(&summary, "summary", "", "Event summary")
	cmd.Flags().StringVarP(&format, "format", "f", "ics", "ics or xcal")
	cmd.Flags().IntVar(&expand, "expand", 0, "Write N expanded occurrences instead of one RRULE series")

	return cmd
}
