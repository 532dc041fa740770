package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"imagemill/internal/manifest"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the published image manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			public, err := manifest.LoadPublic(cfg.Paths.PublicManifest)
			if err != nil {
				return err
			}
			if len(public.Images) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no published images; run `imagemill images` first")
				return nil
			}

			rows := make([][]string, 0, len(public.Images))
			for _, entry := range public.Images {
				files := make([]string, 0, len(entry.Variants))
				for _, variant := range entry.Variants {
					files = append(files, variant.File)
				}
				rows = append(rows, []string{
					entry.ID,
					entry.Ext,
					yesNo(entry.Retina),
					strconv.Itoa(len(entry.Variants)),
					strings.Join(files, ", "),
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "EXT", "RETINA", "VARIANTS", "FILES"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}
	return cmd
}
