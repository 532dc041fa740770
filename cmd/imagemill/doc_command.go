package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"imagemill/internal/gdoc"
)

func newDocCommand(ctx *commandContext) *cobra.Command {
	var documentID string
	var exportURL string
	var outputPath string

	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Download a Google Doc and convert it to structured JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			id := strings.TrimSpace(documentID)
			if id == "" {
				id = cfg.Doc.DocumentID
			}
			target := strings.TrimSpace(exportURL)
			if target == "" {
				target = cfg.Doc.ExportURL
			}
			if target == "" {
				if id == "" {
					return fmt.Errorf("no document configured: set doc.document_id or pass --id")
				}
				target = gdoc.ExportURL(id)
			}

			client := gdoc.NewClient(time.Duration(cfg.Doc.Timeout) * time.Second)
			document, err := client.Fetch(cmd.Context(), target)
			if err != nil {
				return err
			}

			out := strings.TrimSpace(outputPath)
			if out == "" {
				out = cfg.Doc.OutputPath
			}
			if out == "" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(document)
			}

			if err := gdoc.Save(out, document); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d blocks to %s\n", len(document.Blocks), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&documentID, "id", "", "Google Doc document ID")
	cmd.Flags().StringVar(&exportURL, "url", "", "Explicit export URL (overrides --id)")
	cmd.Flags().StringVarP(&outputPath, "out", "o", "", "Output JSON path (default from config, stdout if unset)")
	return cmd
}
