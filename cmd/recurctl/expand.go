package main

import (
	"errors"
	"time"

	"github.com/cyp0633/librecur/recurrence"
	"github.com/spf13/cobra"
)

func (a *app) expandCmd() *cobra.Command {
	var (
		rf      ruleFlags
		start   string
		limit   int
		horizon string
	)

	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Print the occurrences of a rule",
		Example: `  recurctl expand --kind weekly --days mon,wed,fri --start 2024-01-15T09:00 --max 6
  recurctl expand --rrule "FREQ=MONTHLY;BYDAY=2TU" --start 2024-01-09T18:00`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := rf.rule(a.loc)
			if err != nil {
				return err
			}
			first, err := parseTime(start, a.loc)
			if err != nil {
				return err
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			var opts []recurrence.ExpandOption
			if horizon != "" {
				h, err := parseTime(horizon, a.loc)
				if err != nil {
					return err
				}
				opts = append(opts, recurrence.WithHorizon(h))
			}

			occurrences, expandErr := engine.Expand(first, rule, limit, opts...)
			var stopped *recurrence.MissingWeekError
			if expandErr != nil && !errors.As(expandErr, &stopped) {
				return expandErr
			}

			if err := a.printOccurrences(rule, first, occurrences); err != nil {
				return err
			}
			return expandErr
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&start, "start", "", "First candidate instant")
	cmd.Flags().IntVarP(&limit, "max", "n", 10, "Maximum occurrences to print")
	cmd.Flags().StringVar(&horizon, "horizon", "", "Exclusive upper bound for rules without --until")
	_ = cmd.MarkFlagRequired("start")

	return cmd
}

type expandOutput struct {
	Rule        string      `json:"rule"`
	RRule       string      `json:"rrule,omitempty"`
	Occurrences []time.Time `json:"occurrences"`
}

func (a *app) printOccurrences(rule recurrence.Rule, start time.Time, occurrences []time.Time) error {
	if a.jsonOutput() {
		out := expandOutput{Rule: rule.String(), Occurrences: occurrences}
		if rr, err := rule.RRule(start); err == nil {
			out.RRule = rr
		}
		return a.writeJSON(out)
	}
	for _, occ := range occurrences {
		a.printf("%s\n", occ.Format(time.RFC3339))
	}
	return nil
}
