package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"sjsage522/pricewatch/helpers"
	"sjsage522/pricewatch/internal/history"
	"sjsage522/pricewatch/internal/tracking"
	"sjsage522/pricewatch/pkg/errors"
)

func init() {
	productsCmd.AddCommand(productsListCmd, productsAddCmd, productsRemoveCmd)
	rootCmd.AddCommand(productsCmd)
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Manages the tracked product list.",
}

var productsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists the tracked product URLs.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls, err := tracking.NewFileStore(cfg.ProductsFile).List()
		if err != nil {
			return err
		}

		t := newTable(cmd.OutOrStdout())
		t.AppendHeader(table.Row{"#", "ASIN", "URL"})
		for i, u := range urls {
			asin, _ := helpers.ExtractASIN(u)
			t.AppendRow(table.Row{i + 1, asin, u})
		}
		t.AppendFooter(table.Row{"", "Total", len(urls)})
		t.Render()
		return nil
	},
}

var productsAddCmd = &cobra.Command{
	Use:   "add <url>",
	Short: "Adds a product URL and records its first observation.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		url := args[0]
		added, err := a.store.Add(url)
		if err != nil {
			return err
		}
		if !added {
			fmt.Fprintf(out, "Already tracking %s\n", url)
			return nil
		}
		fmt.Fprintf(out, "Tracking %s\n", url)

		record, scrapeErr := a.scraper.ScrapeProduct(cmd.Context(), url)
		err = a.withLease(cmd.Context(), func() error {
			ts := a.history.Now()
			if scrapeErr != nil {
				return a.history.Append(history.Failure(ts, url))
			}
			return a.history.Append(history.Observation(ts, url, record.Title, record.Price, record.DisplayPrice, record.ImageURL))
		})
		if err != nil {
			return err
		}

		if scrapeErr != nil {
			fmt.Fprintf(out, "  -> first check failed: %s\n", errors.ReasonOf(scrapeErr))
			return nil
		}
		fmt.Fprintf(out, "  -> %s | %s\n", record.Title, record.DisplayPrice)
		return nil
	},
}

var productsRemoveCmd = &cobra.Command{
	Use:   "remove <url>",
	Short: "Stops tracking a product URL. Its history is kept.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		removed, err := tracking.NewFileStore(cfg.ProductsFile).Remove(args[0])
		if err != nil {
			return err
		}
		if removed {
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Not tracked: %s\n", args[0])
		}
		return nil
	},
}
