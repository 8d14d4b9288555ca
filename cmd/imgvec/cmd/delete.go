package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <image id>...",
	Aliases: []string{"rm"},
	Short:   "Remove stored images from the vector store",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		for _, name := range args {
			id, err := a.pipeline.Remove(cmd.Context(), name)
			if err != nil {
				return fmt.Errorf("delete %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", id)
		}
		return nil
	},
}
