package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"sjsage522/pricewatch/config"
	"sjsage522/pricewatch/pkg/errors"
)

var (
	flagRate     string
	flagHistory  string
	flagProducts string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "pricewatch",
	Short:         "pricewatch tracks product prices and keeps an append-only price history.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagRate, "rate", "", "exchange rate from source to target currency (overrides PRICEWATCH_EXCHANGE_RATE)")
	rootCmd.PersistentFlags().StringVar(&flagHistory, "history", "", "history CSV file (overrides PRICEWATCH_HISTORY_FILE)")
	rootCmd.PersistentFlags().StringVar(&flagProducts, "products", "", "tracked URL file (overrides PRICEWATCH_PRODUCTS_FILE)")
}

// loadConfig reads the environment and applies flag overrides
func loadConfig() (*config.Config, error) {
	c := config.LoadConfig()
	if flagRate != "" {
		rate, err := decimal.NewFromString(flagRate)
		if err != nil {
			return nil, errors.NewConfiguration(fmt.Sprintf("invalid --rate %q", flagRate), err)
		}
		c.ExchangeRate = rate
	}
	if flagHistory != "" {
		c.HistoryFile = flagHistory
	}
	if flagProducts != "" {
		c.ProductsFile = flagProducts
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Execute runs the CLI until it finishes or the process is interrupted
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
