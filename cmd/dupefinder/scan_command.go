package main

import (
	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan <directory>",
		Short: "Report exact and near-duplicate media under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := ctx.filesystem(cmd)
			if err != nil {
				return err
			}

			report, err := fs.Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, report)
			}
			renderScanReport(cmd.OutOrStdout(), report)
			if len(report.Diagnostics) > 0 {
				renderDiagnostics(cmd.ErrOrStderr(), report.Diagnostics)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the full report as JSON")
	return cmd
}
