package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Print the url of the currently published plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStorage(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		planURL, err := newClient(store).PlanURL(ctx, cfg.Credentials())
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), planURL)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(urlCmd)
}
