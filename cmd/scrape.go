package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sjsage522/pricewatch/internal/history"
	"sjsage522/pricewatch/pkg/errors"
)

var scrapeRecord bool

func init() {
	scrapeCmd.Flags().BoolVar(&scrapeRecord, "record", false, "append the result (or a failure marker) to the history")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url> [--record]",
	Short: "Scrapes a single product page and prints what was extracted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		url := args[0]
		out := cmd.OutOrStdout()
		record, scrapeErr := a.scraper.ScrapeProduct(cmd.Context(), url)

		if scrapeRecord {
			err := a.withLease(cmd.Context(), func() error {
				ts := a.history.Now()
				if scrapeErr != nil {
					return a.history.Append(history.Failure(ts, url))
				}
				return a.history.Append(history.Observation(ts, url, record.Title, record.Price, record.DisplayPrice, record.ImageURL))
			})
			if err != nil {
				return err
			}
		}

		if scrapeErr != nil {
			fmt.Fprintf(out, "Could not extract product info: %s\n", errors.ReasonOf(scrapeErr))
			return scrapeErr
		}

		image := record.ImageURL
		if image == "" {
			image = "(none)"
		}
		fmt.Fprintln(out, "Product Information:")
		fmt.Fprintf(out, "Title:    %s\n", record.Title)
		fmt.Fprintf(out, "Price:    %s\n", record.DisplayPrice)
		fmt.Fprintf(out, "Amount:   %s\n", record.Price.StringFixed(2))
		fmt.Fprintf(out, "Currency: %s\n", record.Currency)
		fmt.Fprintf(out, "Image:    %s\n", image)
		fmt.Fprintf(out, "URL:      %s\n", record.SourceURL)
		return nil
	},
}
