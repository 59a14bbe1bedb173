package main

import (
	"time"

	"github.com/cyp0633/librecur/conflict"
	"github.com/cyp0633/librecur/planner"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func (a *app) checkCmd() *cobra.Command {
	var (
		span         spanFlags
		id           string
		participants []string
		exclude      string
		existing     string
		modeName     string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check one interval against existing intervals",
		Example: `  recurctl check --start 2024-01-15T09:00 --duration 30m --existing booked.json
  recurctl check --mode task --start 2024-01-15T09:00 --participants alice --exclude task-7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := planner.ParseMode(modeName)
			if err != nil {
				return err
			}
			start, end, err := span.parse(a.loc)
			if err != nil {
				return err
			}
			policy := conflict.RequireEnd
			if mode == planner.Task {
				policy = conflict.DefaultDuration
			}
			resolved, err := conflict.ResolveEnd(start, end, policy)
			if err != nil {
				return err
			}

			candidate := conflict.Interval{
				ID:             id,
				Start:          start,
				End:            resolved,
				ParticipantIDs: participants,
			}
			if exclude != "" {
				candidate.ExcludeID = mo.Some(exclude)
			}

			src, release, err := a.source(cmd.Context(), existing)
			if err != nil {
				return err
			}
			defer release()

			pool, err := src.Overlapping(cmd.Context(), candidate.Start, candidate.End)
			if err != nil {
				return err
			}

			detector := conflict.EventDetector()
			if mode == planner.Task {
				detector = conflict.TaskDetector(conflict.StatusIn(a.cfg.Planner.CancelledStatuses...))
			}
			conflicts := detector.FindConflicts(candidate, pool)
			a.logger.Debug("checked interval", "mode", mode.String(), "pool", len(pool), "conflicts", len(conflicts))

			return a.printCheck(candidate, conflicts)
		},
	}

	span.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "ID of the candidate interval")
	cmd.Flags().StringSliceVar(&participants, "participants", nil, "Participant IDs")
	cmd.Flags().StringVar(&exclude, "exclude", "", "Existing interval ID to ignore, e.g. the one being moved")
	cmd.Flags().StringVar(&existing, "existing", "", "JSON file of existing intervals")
	cmd.Flags().StringVar(&modeName, "mode", "event", "event or task")

	return cmd
}

type checkOutput struct {
	Candidate intervalRecord   `json:"candidate"`
	Free      bool             `json:"free"`
	Conflicts []intervalRecord `json:"conflicts"`
}

func (a *app) printCheck(candidate conflict.Interval, conflicts []conflict.Interval) error {
	if a.jsonOutput() {
		return a.writeJSON(checkOutput{
			Candidate: toRecord(candidate),
			Free:      len(conflicts) == 0,
			Conflicts: toRecords(conflicts),
		})
	}
	if len(conflicts) == 0 {
		a.printf("free\n")
		return nil
	}
	a.printf("%d conflicts\n", len(conflicts))
	for _, c := range conflicts {
		a.printf("  %s  %s - %s\n", c.ID, c.Start.Format(time.RFC3339), c.End.Format(time.RFC3339))
	}
	return nil
}
