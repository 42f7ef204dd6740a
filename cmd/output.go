package cmd

import (
	"fmt"
	"io"

	"vertretungsplan-bot/matcher"
	"vertretungsplan-bot/types"
)

// printNews writes the announcements grouped under their date label
func printNews(w io.Writer, news []types.NewsItem) {
	if len(news) == 0 {
		fmt.Fprintln(w, "Keine Nachrichten.")
		return
	}

	label := ""
	for i, item := range news {
		if i == 0 || item.DateLabel != label {
			label = item.DateLabel
			fmt.Fprintf(w, "📰 %s\n", label)
		}
		fmt.Fprintf(w, "  %s\n", item.Text)
	}
}

// printMatches writes one line per entry, grouped by date like the plan itself
func printMatches(w io.Writer, header string, matches []matcher.Match) {
	if len(matches) == 0 {
		fmt.Fprintln(w, "Keine relevanten Vertretungen.")
		return
	}

	fmt.Fprintln(w, header)
	date := ""
	for i, m := range matches {
		if i == 0 || m.Entry.Date != date {
			date = m.Entry.Date
			fmt.Fprintf(w, "📅 %s %s\n", date, m.Entry.WeekDay)
		}

		line := m.Entry.String()
		if m.Entry.ReplType != "" {
			line += " (" + m.Entry.ReplType + ")"
		}
		if m.Entry.Description != "" {
			line += ": " + m.Entry.Description
		}
		fmt.Fprintf(w, "  %s [Übereinstimmungslevel %d/%d]\n", line, m.Score, matcher.MaxScore)
	}
}

func printLastUpdated(w io.Writer, plan *types.Plan) {
	if plan.LastUpdated != "" {
		fmt.Fprintf(w, "Stand: %s\n", plan.LastUpdated)
	}
}
