package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUndoCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "undo <destination> <original>",
		Short: "Move a relocated file back to where it came from",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := ctx.filesystem(cmd)
			if err != nil {
				return err
			}

			if err := fs.Undo(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[1])
			return err
		},
	}
}
