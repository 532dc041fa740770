package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagemill/internal/preflight"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Check required external binaries and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var rows [][]string
			missing := 0
			for _, result := range preflight.Run(cfg) {
				if !result.Passed {
					missing++
				}
				rows = append(rows, []string{result.Name, yesNo(result.Passed), result.Detail})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"CHECK", "OK", "DETAIL"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if missing > 0 {
				return fmt.Errorf("%d checks failed", missing)
			}
			return nil
		},
	}
	return cmd
}
