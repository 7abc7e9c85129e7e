package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"StockCast/internal/collector"
	"StockCast/internal/export"
	"StockCast/internal/logger"
)

func newExportCmd(cfgPath *string) *cobra.Command {
	var (
		flags        selectionFlags
		outDir       string
		withForecast bool
	)
	cmd := &cobra.Command{
		Use:   "export <TICKER>",
		Short: "Write the price series, and optionally its forecast, to Parquet files",
		Args:  cobra.ExactArgs(1),
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
			path := export.SeriesPath(outDir, series)
			if err := export.WriteSeries(path, series); err != nil {
				return err
			}
			logger.Info("series exported", logger.String("path", path), logger.Int("rows", series.Len()))
			fmt.Fprintln(cmd.OutOrStdout(), path)

			if !withForecast {
				return nil
			}
			fc, err := app.Service.Forecast(ctx, ticker, sel.Start, sel.End, sel.Horizon.TotalDays())
			if err != nil {
				return err
			}
			fpath := export.ForecastPath(outDir, fc)
			if err := export.WriteForecast(fpath, fc); err != nil {
				return err
			}
			logger.Info("forecast exported", logger.String("path", fpath), logger.Int("rows", len(fc.Points)))
			fmt.Fprintln(cmd.OutOrStdout(), fpath)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "data/export", "output directory")
	cmd.Flags().BoolVar(&withForecast, "forecast", false, "also export the forecast frame")
	return cmd
}
