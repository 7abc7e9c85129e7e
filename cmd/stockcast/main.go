package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"StockCast/internal/cache"
	"StockCast/internal/collector"
	"StockCast/internal/config"
	"StockCast/internal/dashboard"
	"StockCast/internal/forecast"
	"StockCast/internal/logger"
	"StockCast/internal/recorder"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// App bundles the components every subcommand needs.
type App struct {
	Config   *config.Config
	Store    cache.Store
	Recorder recorder.Recorder
	Service  *dashboard.Service

	closers []io.Closer
}

func newRootCmd() *cobra.Command {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}

	root := &cobra.Command{
		Use:          "stockcast",
		Short:        "Stock price dashboard with SMA overlays and forecasts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, cfgPath)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", cfgPath, "path to the YAML config file")

	root.AddCommand(newServeCmd(&cfgPath))
	root.AddCommand(newForecastCmd(&cfgPath))
	root.AddCommand(newExportCmd(&cfgPath))
	return root
}

// newApp loads the config, starts logging and wires the data path.
func newApp(cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	app := &App{Config: cfg}

	fetcher, err := collector.NewFetcher(collector.Options{
		Provider:  cfg.DataSource.Provider,
		BaseURL:   cfg.DataSource.BaseURL,
		APIKey:    cfg.DataSource.APIKey,
		APISecret: cfg.DataSource.APISecret,
		Proxy:     cfg.Proxy,
		Timeout:   cfg.DataSource.Timeout,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("data source selected", logger.String("provider", fetcher.Name()))

	switch cfg.Cache.Backend {
	case "redis":
		rc, err := cache.NewRedis(cfg.Cache.RedisAddr, os.Getenv("REDIS_PASSWORD"), cfg.Cache.RedisDB, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		app.Store = rc
		app.closers = append(app.closers, rc)
	default:
		app.Store = cache.NewMemory(cfg.Cache.MaxEntries, cfg.Cache.TTL)
	}

	sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
	if err != nil {
		logger.Warn("init sqlite recorder failed, using noop", logger.ErrorField(err))
		app.Recorder = recorder.NewNoopRecorder()
	} else {
		app.Recorder = sr
		app.closers = append(app.closers, sr)
	}

	engine, err := forecast.NewEngine(cfg.Forecast.Model, forecast.AdditiveOptions{
		IntervalWidth: cfg.Forecast.IntervalWidth,
		Changepoints:  cfg.Forecast.ChangepointCount,
	})
	if err != nil {
		return nil, err
	}

	start, err := time.Parse("2006-01-02", cfg.Dashboard.DefaultStart)
	if err != nil {
		return nil, fmt.Errorf("dashboard.default_start: %w", err)
	}
	loader := collector.NewLoader(fetcher, app.Store, app.Recorder)
	app.Service = dashboard.NewService(loader, engine, app.Recorder, dashboard.Options{
		Title:        "Stock Prediction App",
		Tickers:      cfg.Dashboard.Tickers,
		DefaultStart: start,
		MaxYears:     cfg.Dashboard.MaxYears,
	})
	return app, nil
}

// Close releases the cache connection and the database.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			logger.Warn("close resource", logger.ErrorField(err))
		}
	}
	_ = logger.Sync()
}
