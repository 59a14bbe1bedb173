package main

import (
	"strings"
	"time"

	"github.com/cyp0633/librecur/metrics"
	"github.com/cyp0633/librecur/planner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func (a *app) planCmd() *cobra.Command {
	var (
		rf           ruleFlags
		span         spanFlags
		limit        int
		modeName     string
		participants []string
		seriesID     string
		status       string
		existing     string
		reserve      bool
		showMetrics  bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Expand a rule and check every occurrence for conflicts",
		Example: `  recurctl plan --kind weekly --days mon,wed --start 2024-01-15T09:00 --duration 30m --existing booked.json
  recurctl plan --mode task --rrule "FREQ=DAILY;COUNT=5" --start 2024-01-15T14:00 --participants alice --reserve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := planner.ParseMode(modeName)
			if err != nil {
				return err
			}
			rule, err := rf.rule(a.loc)
			if err != nil {
				return err
			}
			start, end, err := span.parse(a.loc)
			if err != nil {
				return err
			}

			engine, err := a.engine()
			if err != nil {
				return err
			}
			defer engine.Close()

			src, release, err := a.source(cmd.Context(), existing)
			if err != nil {
				return err
			}
			defer release()

			reg := prometheus.NewRegistry()
			p := planner.New(planner.Config{
				Engine:            engine,
				Source:            src,
				Logger:            a.logger,
				Metrics:           metrics.NewCollector(reg),
				Concurrency:       a.cfg.Planner.Concurrency,
				CancelledStatuses: a.cfg.Planner.CancelledStatuses,
			})

			plan, planErr := p.Plan(cmd.Context(), planner.Request{
				SeriesID:       seriesID,
				Start:          start,
				End:            end,
				Rule:           rule,
				Max:            limit,
				Mode:           mode,
				ParticipantIDs: participants,
				Status:         status,
				Reserve:        reserve,
			})
			if plan == nil {
				return planErr
			}

			if err := a.printPlan(plan); err != nil {
				return err
			}
			if showMetrics {
				if err := metrics.WriteText(a.stderr, reg); err != nil {
					return err
				}
			}
			return planErr
		},
	}

	rf.register(cmd)
	span.register(cmd)
	cmd.Flags().IntVarP(&limit, "max", "n", 10, "Maximum occurrences to plan")
	cmd.Flags().StringVar(&modeName, "mode", "event", "event or task")
	cmd.Flags().StringSliceVar(&participants, "participants", nil, "Participant IDs")
	cmd.Flags().StringVar(&seriesID, "series-id", "", "Stable series ID; re-planning replaces the series' own intervals")
	cmd.Flags().StringVar(&status, "status", "", "Status stored with reserved intervals")
	cmd.Flags().StringVar(&existing, "existing", "", "JSON file of existing intervals")
	cmd.Flags().BoolVar(&reserve, "reserve", false, "Store every free interval")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Write Prometheus metrics to stderr")

	return cmd
}

type slotOutput struct {
	Interval  intervalRecord   `json:"interval"`
	Free      bool             `json:"free"`
	Reserved  bool             `json:"reserved,omitempty"`
	Conflicts []intervalRecord `json:"conflicts"`
}

type planOutput struct {
	Mode            string       `json:"mode"`
	Slots           []slotOutput `json:"slots"`
	Free            int          `json:"free"`
	Conflicting     int          `json:"conflicting"`
	SelfOverlapping bool         `json:"self_overlapping,omitempty"`
	Summary         string       `json:"summary"`
}

func (a *app) printPlan(plan *planner.Plan) error {
	if a.jsonOutput() {
		out := planOutput{
			Mode:            plan.Mode.String(),
			Slots:           make([]slotOutput, 0, len(plan.Slots)),
			Free:            plan.Free,
			Conflicting:     plan.Conflicting,
			SelfOverlapping: plan.SelfOverlapping,
			Summary:         plan.Summary(),
		}
		for _, s := range plan.Slots {
			out.Slots = append(out.Slots, slotOutput{
				Interval:  toRecord(s.Interval),
				Free:      s.Free(),
				Reserved:  s.Reserved,
				Conflicts: toRecords(s.Conflicts),
			})
		}
		return a.writeJSON(out)
	}

	for _, s := range plan.Slots {
		state := "free"
		if !s.Free() {
			ids := make([]string, 0, len(s.Conflicts))
			for _, c := range s.Conflicts {
				ids = append(ids, c.ID)
			}
			state = "conflicts: " + strings.Join(ids, ",")
		}
		if s.Reserved {
			state += " (reserved)"
		}
		a.printf("%s  %s  %s\n", s.Interval.Start.Format(time.RFC3339), s.Interval.End.Format(time.RFC3339), state)
	}
	a.printf("%s\n", plan.Summary())
	return nil
}
