package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"StockCast/internal/dashboard"
	"StockCast/internal/logger"
	"StockCast/internal/notifier"
	"StockCast/internal/scheduler"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, *cfgPath)
		},
	}
}

func runServe(cmd *cobra.Command, cfgPath string) error {
	app, err := newApp(cfgPath)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.Config

	logger.Info("StockCast starting",
		logger.String("addr", cfg.Server.Addr),
		logger.String("model", app.Service.Engine.ModelName()),
		logger.String("cache", app.Store.Name()),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var sender scheduler.Sender
	var tn *notifier.TelegramNotifier
	if cfg.NotificationsEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		sender = tn
	}

	sched := scheduler.NewScheduler(ctx, app.Service, app.Store, sender, cfg.Schedule.Watchlist)
	if err := sched.RegisterAll(cfg.Schedule.SweepCron, cfg.Schedule.PrewarmCron, cfg.Schedule.DigestCron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		logger.Info("Telegram polling started")
	}

	if os.Getenv("PREWARM_ON_START") == "true" {
		go sched.RunPrewarmNow()
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      dashboard.NewHandler(app.Service).Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", logger.ErrorField(err))
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", logger.ErrorField(err))
		return err
	}
	logger.Info("StockCast stopped")
	return nil
}
