package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"imagemill/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent runs, or the tasks of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				return printRunTasks(cmd, store, args[0])
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Format("2006-01-02 15:04:05"),
					strconv.Itoa(run.Requested),
					strconv.Itoa(run.Needed),
					strconv.Itoa(run.Completed),
					strconv.Itoa(run.Failed),
					strconv.Itoa(run.TimedOut),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"RUN", "STARTED", "REQUESTED", "NEEDED", "COMPLETED", "FAILED", "TIMED OUT"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show")
	return cmd
}

func printRunTasks(cmd *cobra.Command, store *history.Store, runID string) error {
	tasks, err := store.TasksForRun(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no tasks recorded for run %s\n", runID)
		return nil
	}

	rows := make([][]string, 0, len(tasks))
	for _, rec := range tasks {
		rows = append(rows, []string{
			rec.Item,
			rec.Status,
			strconv.FormatInt(rec.DurationMS, 10) + "ms",
			rec.Detail,
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"ITEM", "STATUS", "DURATION", "DETAIL"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
	))
	return nil
}
