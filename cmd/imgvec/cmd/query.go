package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var queryK int

var queryCmd = &cobra.Command{
	Use:   "query <image>",
	Short: "Rank stored images against a query image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.pipeline.Query(cmd.Context(), data, queryK)
		if err != nil {
			return err
		}
		if res.NoData() {
			return errors.New("no data in the vector store")
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderMatches(res))
		return nil
	},
}

func init() {
	queryCmd.Flags().IntVarP(&queryK, "top", "k", 0, "number of matches (default search.topK)")
}
