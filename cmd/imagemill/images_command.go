package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagemill/internal/history"
	"imagemill/internal/pipeline"
	"imagemill/internal/report"
)

func newImagesCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "images",
		Short: "Build image renditions and write the manifests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if force {
				cfg.Images.Force = true
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg.Paths.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			reporter := report.New()
			reporter.Subscribe(func(event report.Event) {
				switch event.Type {
				case report.EventTasksReady:
					fmt.Fprintf(cmd.OutOrStdout(), "%d of %d commands need to run\n",
						event.Counts.Needed, event.Counts.Requested)
				case report.EventTaskDone:
					fmt.Fprintf(cmd.OutOrStdout(), "  [%d/%d] %s: %s\n",
						event.Counts.Completed, event.Counts.Needed, event.Item, event.Command)
				}
			})

			p := pipeline.New(pipeline.Options{
				Config:   cfg,
				Logger:   logger,
				Reporter: reporter,
				History:  store,
			})
			outcome, err := p.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(),
				"run %s: %d items, %d completed, %d failed, %d timed out, %d canceled\n",
				outcome.RunID, len(outcome.Items), outcome.Summary.Completed,
				outcome.Summary.Failed, outcome.Summary.TimedOut, outcome.Summary.Canceled)
			unsettled := outcome.Summary.Failed + outcome.Summary.TimedOut + outcome.Summary.Canceled
			if unsettled > 0 {
				return fmt.Errorf("%d commands did not succeed", unsettled)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-run every command regardless of ledger state")
	return cmd
}
