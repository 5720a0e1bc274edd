package cmd

import (
	"github.com/spf13/cobra"

	"sjsage522/pricewatch/logger"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Runs a tracking pass every PRICEWATCH_CRAWL_INTERVAL_MINUTES until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		log := logger.ForCLI()
		log.Info().
			Str("environment", cfg.Environment).
			Dur("crawl_interval", cfg.CrawlInterval).
			Str("lease_backend", cfg.LeaseBackend).
			Msg("Starting price watcher")

		if err := a.worker().Start(cmd.Context()); err != nil {
			return err
		}
		log.Info().Msg("Shutting down gracefully...")
		return nil
	},
}
