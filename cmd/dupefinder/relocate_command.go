package main

import (
	"github.com/spf13/cobra"
)

func newRelocateCommand(ctx *commandContext) *cobra.Command {
	var destination string
	var dryRun bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "relocate <directory>",
		Short: "Move exact duplicates into a review directory, keeping one copy in place",
		Long: "Scans the directory, keeps the first file of every exact-duplicate group in place and " +
			"moves the rest under the review directory, mirroring their relative paths. " +
			"Existing files are never overwritten.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := ctx.filesystem(cmd)
			if err != nil {
				return err
			}

			_, result, err := fs.ScanAndRelocate(cmd.Context(), args[0], destination, dryRun)
			if result == nil {
				return err
			}

			// an interrupted run still reports the moves it made
			if jsonOutput {
				if writeErr := writeJSON(cmd, result); writeErr != nil {
					return writeErr
				}
				return err
			}
			renderRelocation(cmd.OutOrStdout(), result)
			return err
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Review directory (default: duplicates_review next to the scanned directory)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the planned moves without touching any file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the relocation result as JSON")
	return cmd
}
