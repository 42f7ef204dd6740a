package cmd

import (
	"fmt"

	"vertretungsplan-bot/matcher"
	"vertretungsplan-bot/types"

	"github.com/spf13/cobra"
)

var (
	lessonFlags []string
	level       int
	owner       string
)

var checkCmd = &cobra.Command{
	Use:   "check [lesson...]",
	Short: "Show the substitutions relevant for your lessons",
	Long: `Fetch the current plan and list every entry that matches at least one lesson.

With --owner the relevant entries are compared with the ones found by the
previous check for the same owner (stored in Redis) and only new ones are shown.`,
	Example: `  vertretungsplan check 05A
  vertretungsplan check "05A Mo 1 Deu 1.23" "05A Di 3 Ma 2.04 B" --level 4
  vertretungsplan check -l "Q1 Fr 5 Eng 3.10" --owner 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		lessons, err := parseLessons(append(append([]string{}, args...), lessonFlags...))
		if err != nil {
			return err
		}
		if len(lessons) == 0 {
			return fmt.Errorf("no lessons given")
		}

		threshold := cfg.Match.Level
		if cmd.Flags().Changed("level") {
			threshold = level
		}
		if threshold < 0 || threshold > matcher.MaxScore {
			return fmt.Errorf("level must be between 0 and %d, got %d", matcher.MaxScore, threshold)
		}

		ctx := cmd.Context()
		store, err := openStorage(ctx)
		if err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
		if owner != "" && store == nil {
			return fmt.Errorf("--owner needs redis.addr to be configured")
		}

		c := newChecker(store, threshold)
		creds := cfg.Credentials()
		out := cmd.OutOrStdout()

		if owner == "" {
			result, err := c.Check(ctx, creds, lessons)
			if err != nil {
				return err
			}
			printNews(out, result.Plan.News)
			fmt.Fprintln(out)
			printMatches(out, "🔔 Relevante Vertretungen:", result.Matches)
			printLastUpdated(out, result.Plan)
			return nil
		}

		result, fresh, err := c.CheckNew(ctx, owner, creds, lessons)
		if err != nil {
			return err
		}
		printMatches(out, "🆕 Neue Vertretungen:", onlyEntries(result.Matches, fresh))
		printLastUpdated(out, result.Plan)
		return nil
	},
}

func parseLessons(texts []string) ([]types.Lesson, error) {
	lessons := make([]types.Lesson, 0, len(texts))
	for _, text := range texts {
		lesson, err := types.ParseLesson(text)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, lesson)
	}
	return lessons, nil
}

// onlyEntries keeps the matches whose entry is in entries
func onlyEntries(matches []matcher.Match, entries []types.Substitution) []matcher.Match {
	keep := make(map[string]bool, len(entries))
	for i := range entries {
		keep[entries[i].UniqueID()] = true
	}

	filtered := make([]matcher.Match, 0, len(entries))
	for _, m := range matches {
		if keep[m.Entry.UniqueID()] {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringArrayVarP(&lessonFlags, "lesson", "l", nil, "Lesson to match (repeatable)")
	checkCmd.Flags().IntVar(&level, "level", 5, "Number of fields that must agree (0-6), defaults to match.level")
	checkCmd.Flags().StringVar(&owner, "owner", "", "Only show entries that are new since the last check for this owner")
}
