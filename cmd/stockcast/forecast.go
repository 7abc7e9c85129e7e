package main

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"StockCast/internal/calculator"
	"StockCast/internal/collector"
	"StockCast/internal/dashboard"
	"StockCast/internal/model"
	"StockCast/internal/notifier"
)

const cliTimeout = 2 * time.Minute

// selectionFlags are the sidebar widgets as command-line flags.
type selectionFlags struct {
	start  string
	end    string
	years  int
	months int
	days   int
}

func (f *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "start date YYYY-MM-DD (default from config)")
	cmd.Flags().StringVar(&f.end, "end", "", "end date YYYY-MM-DD, exclusive (default today)")
	cmd.Flags().IntVar(&f.years, "years", 1, "forecast horizon years")
	cmd.Flags().IntVar(&f.months, "months", 0, "forecast horizon months (0-11)")
	cmd.Flags().IntVar(&f.days, "days", 0, "forecast horizon days (0-30)")
}

// selection validates the flags with the same constraints as the page. Any
// ticker is accepted on the command line.
func (f *selectionFlags) selection(app *App, ticker string) (model.Selection, error) {
	q := url.Values{}
	q.Set("ticker", ticker)
	q.Set("start", f.start)
	q.Set("end", f.end)
	q.Set("years", strconv.Itoa(f.years))
	q.Set("months", strconv.Itoa(f.months))
	q.Set("days", strconv.Itoa(f.days))

	opts := app.Service.Options
	opts.Tickers = []string{ticker}
	return dashboard.ParseSelection(q, opts)
}

func newForecastCmd(cfgPath *string) *cobra.Command {
	var flags selectionFlags
	cmd := &cobra.Command{
		Use:     "forecast <TICKER>",
		Short:   "Print key statistics and the forecast end point for a ticker",
		Example: "  stockcast forecast GOOG --years 2\n  stockcast forecast AAPL --years 0 --months 6",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(*cfgPath)
			if err != nil {
				return err
			}
			defer app.Close()

			ticker := collector.NormalizeTicker(args[0])
			sel, err := flags.selection(app, ticker)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), cliTimeout)
			defer cancel()

			series, err := app.Service.Loader.Load(ctx, ticker, sel.Start, sel.End)
			if err != nil {
				return err
			}
			stats, err := calculator.Summarize(series.Bars)
			if err != nil {
				return err
			}
			fc, err := app.Service.Forecast(ctx, ticker, sel.Start, sel.End, sel.Horizon.TotalDays())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), notifier.FormatForecastSummary(series, stats, fc))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
