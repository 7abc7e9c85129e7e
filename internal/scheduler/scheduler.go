package scheduler

import (
	"context"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"StockCast/internal/cache"
	"StockCast/internal/calculator"
	"StockCast/internal/collector"
	"StockCast/internal/dashboard"
	"StockCast/internal/logger"
	"StockCast/internal/metrics"
	"StockCast/internal/notifier"
)

// Sender delivers a text message, retrying on failure.
type Sender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

const sendRetries = 3

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Service   *dashboard.Service
	Cache     cache.Store
	Notifier  Sender
	Watchlist []string
	Ctx       context.Context
}

// NewScheduler creates a new Scheduler. A nil notifier disables the digest.
func NewScheduler(ctx context.Context, svc *dashboard.Service, store cache.Store, tn Sender, watchlist []string) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Service:   svc,
		Cache:     store,
		Notifier:  tn,
		Watchlist: watchlist,
		Ctx:       ctx,
	}
}

// RegisterAll registers the cache sweep, the watchlist prewarm and, with a
// notifier, the forecast digest.
func (s *Scheduler) RegisterAll(sweepCron, prewarmCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(sweepCron, s.sweepTask); err != nil {
		return fmt.Errorf("register sweep task: %w", err)
	}
	if _, err := s.Cron.AddFunc(prewarmCron, func() { s.RunPrewarmNow() }); err != nil {
		return fmt.Errorf("register prewarm task: %w", err)
	}
	if s.Notifier != nil && digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, s.digestTask); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	logger.Info("scheduler started", logger.Int("jobs", len(s.Cron.Entries())))
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	logger.Info("scheduler stopped")
}

func (s *Scheduler) sweepTask() {
	removed, err := s.Cache.Sweep(s.Ctx)
	if err != nil {
		logger.Error("cache sweep", logger.ErrorField(err))
		return
	}
	size := s.Cache.Len()
	metrics.CacheSize.Set(float64(size))
	logger.Debug("cache swept", logger.Int("removed", removed), logger.Int("size", size))
}

// RunPrewarmNow loads the default-range series of every watchlist ticker so
// the first page view after the close is served from the cache. It returns
// how many tickers loaded.
func (s *Scheduler) RunPrewarmNow() int {
	logger.Info("running prewarm task", logger.Int("tickers", len(s.Watchlist)))
	ok := 0
	for _, ticker := range s.Watchlist {
		sel := s.Service.Options.DefaultSelection()
		if _, err := s.Service.Loader.Load(s.Ctx, ticker, sel.Start, sel.End); err != nil {
			logger.Warn("prewarm failed", logger.String("ticker", ticker), logger.ErrorField(err))
			continue
		}
		ok++
	}
	metrics.CacheSize.Set(float64(s.Cache.Len()))
	return ok
}

func (s *Scheduler) digestTask() {
	logger.Info("running digest task")
	var summaries, failed []string
	for _, ticker := range s.Watchlist {
		text, err := s.Summarize(s.Ctx, ticker)
		if err != nil {
			logger.Warn("digest summary failed", logger.String("ticker", ticker), logger.ErrorField(err))
			failed = append(failed, ticker)
			continue
		}
		summaries = append(summaries, text)
	}
	s.trySend(notifier.FormatDigest(summaries, failed))
}

// Summarize loads the default range for ticker, forecasts it over the
// default horizon and formats the result.
func (s *Scheduler) Summarize(ctx context.Context, ticker string) (string, error) {
	sel := s.Service.Options.DefaultSelection()
	series, err := s.Service.Loader.Load(ctx, ticker, sel.Start, sel.End)
	if err != nil {
		return "", err
	}
	stats, err := calculator.Summarize(series.Bars)
	if err != nil {
		return "", err
	}
	fc, err := s.Service.Forecast(ctx, ticker, sel.Start, sel.End, sel.Horizon.TotalDays())
	if err != nil {
		return "", err
	}
	return notifier.FormatForecastSummary(series, stats, fc), nil
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return ""
	}
	switch strings.ToLower(fields[0]) {
	case "/forecast":
		if len(fields) < 2 {
			return "Usage: /forecast TICKER"
		}
		ticker := collector.NormalizeTicker(fields[1])
		text, err := s.Summarize(ctx, ticker)
		if err != nil {
			logger.Warn("forecast command failed", logger.String("ticker", ticker), logger.ErrorField(err))
			return fmt.Sprintf("❌ %s: %v", ticker, err)
		}
		return text
	default:
		return notifier.FormatHelp(s.Service.Options.Tickers)
	}
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, sendRetries); err != nil {
		logger.Error("send notification", logger.ErrorField(err))
	}
}
