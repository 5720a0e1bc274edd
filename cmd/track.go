package cmd

import (
	stderrors "errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sjsage522/pricewatch/services/lease"
	"sjsage522/pricewatch/services/worker"
)

func init() {
	rootCmd.AddCommand(trackCmd)
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Scrapes every tracked product once and appends the results to the history.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.worker().RunLocked(cmd.Context())
		if stderrors.Is(err, lease.ErrHeld) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Update already in progress (lease is held)")
			return nil
		}
		if err != nil {
			return err
		}

		renderSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

func renderSummary(w io.Writer, s worker.RunSummary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Checked", "Recorded", "Failed", "Took"})
	t.AppendRow(table.Row{s.Total, s.Recorded, s.Failed, s.Elapsed.Round(time.Millisecond)})
	t.Render()

	if len(s.Failures) == 0 {
		return
	}
	urls := make([]string, 0, len(s.Failures))
	for u := range s.Failures {
		urls = append(urls, u)
	}
	slices.Sort(urls)

	f := newTable(w)
	f.AppendHeader(table.Row{"URL", "Reason"})
	for _, u := range urls {
		f.AppendRow(table.Row{u, s.Failures[u]})
	}
	f.Render()
}
