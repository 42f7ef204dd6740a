package cmd

import (
	"github.com/spf13/cobra"
)

var newsCmd = &cobra.Command{
	Use:   "news",
	Short: "Show the announcements of the current plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := openStorage(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}

		plan, err := newChecker(store, cfg.Match.Level).Plan(ctx, cfg.Credentials())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printNews(out, plan.News)
		printLastUpdated(out, plan)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
}
