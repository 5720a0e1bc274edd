package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"sjsage522/pricewatch/internal/history"
	"sjsage522/pricewatch/internal/pricing"
)

const displayTimeLayout = "Jan 02, 2006 3:04 PM"

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// formatChange renders "▲ +PHP20.00 (+20.0%)"
func formatChange(prefix string, c pricing.Change) string {
	sign := ""
	switch c.Direction {
	case pricing.Increase:
		sign = "+"
	case pricing.Decrease:
		sign = "-"
	}
	return fmt.Sprintf("%s %s%s (%s%s%%)",
		c.Direction.Symbol(),
		sign, pricing.FormatDisplay(prefix, c.Delta.Abs()),
		sign, c.Percent.Abs().StringFixed(1),
	)
}

func formatPrice(e history.Entry) string {
	if !e.Succeeded() {
		return "failed"
	}
	return e.DisplayPrice
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(displayTimeLayout)
}
