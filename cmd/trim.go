package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"sjsage522/pricewatch/pkg/errors"
)

var trimDays int

func init() {
	trimCmd.Flags().IntVar(&trimDays, "days", 0, "keep entries from the last N days (default PRICEWATCH_RETENTION_DAYS)")
	rootCmd.AddCommand(trimCmd)
}

var trimCmd = &cobra.Command{
	Use:   "trim [--days N]",
	Short: "Removes history entries older than the retention window.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		days := cfg.RetentionDays
		if cmd.Flags().Changed("days") {
			days = trimDays
		}
		if days < 1 {
			return errors.NewValidation("", "--days must be at least 1")
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		cutoff := a.history.Now().AddDate(0, 0, -days)
		var removed int
		err = a.withLease(cmd.Context(), func() error {
			n, err := a.history.TrimOlderThan(cutoff)
			removed = n
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entries older than %s\n", removed, cutoff.Format("2006-01-02"))
		return nil
	},
}
