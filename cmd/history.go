package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sjsage522/pricewatch/internal/history"
	"sjsage522/pricewatch/internal/pricing"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history <url>",
	Short: "Shows every check of one product, newest first, with price changes and stats.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		entries, err := history.NewLog(cfg.HistoryFile, cfg.Location).AllEntriesFor(args[0])
		if err != nil {
			return err
		}
		renderHistory(cmd.OutOrStdout(), cfg.TargetPrefix, args[0], entries)
		return nil
	},
}

// renderHistory expects entries newest first
func renderHistory(w io.Writer, prefix, url string, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintf(w, "No history for %s\n", url)
		return
	}
	fmt.Fprintln(w, entries[0].Title)

	if stats, ok := history.ComputeStats(entries); ok {
		s := newTable(w)
		s.AppendHeader(table.Row{"Lowest", "Highest", "Average", "Priced", "Checks", "Tracked since"})
		s.AppendRow(table.Row{
			pricing.FormatDisplay(prefix, stats.Lowest),
			pricing.FormatDisplay(prefix, stats.Highest),
			pricing.FormatDisplay(prefix, stats.Average),
			stats.Count,
			stats.Checks,
			formatTime(stats.FirstCheck),
		})
		s.Render()
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Checked", "Price", "Change"})
	for _, ae := range history.Annotate(entries) {
		change := ""
		if ae.HasChange {
			change = formatChange(prefix, ae.Change)
		}
		t.AppendRow(table.Row{formatTime(ae.Timestamp), formatPrice(ae.Entry), change})
	}
	t.Render()
}
