package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sjsage522/pricewatch/helpers"
	"sjsage522/pricewatch/internal/history"
	"sjsage522/pricewatch/internal/tracking"
)

func init() {
	rootCmd.AddCommand(latestCmd)
}

var latestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Shows the latest check of every tracked product.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := tracking.NewFileStore(cfg.ProductsFile).List()
		if err != nil {
			return err
		}
		summaries, err := history.NewLog(cfg.HistoryFile, cfg.Location).Summaries()
		if err != nil {
			return err
		}
		renderLatest(cmd.OutOrStdout(), cfg.TargetPrefix, urls, summaries)
		return nil
	},
}

func renderLatest(w io.Writer, prefix string, urls []string, summaries map[string]history.Summary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ASIN", "Title", "Price", "Change", "Checks", "Last checked"})
	t.SetColumnConfigs([]table.ColumnConfig{{Name: "Title", WidthMax: 48}})

	for _, u := range urls {
		asin, ok := helpers.ExtractASIN(u)
		if !ok {
			asin = helpers.HostOf(u)
		}

		s, found := summaries[u]
		if !found {
			t.AppendRow(table.Row{asin, u, "", "", 0, formatTime(s.Latest.Timestamp)})
			continue
		}

		title := s.Latest.Title
		if title == "" {
			title = u
		}
		change := ""
		if s.HasChange {
			change = formatChange(prefix, s.Change)
		}
		t.AppendRow(table.Row{asin, title, formatPrice(s.Latest), change, s.Checks, formatTime(s.Latest.Timestamp)})
	}
	t.Render()
}
