package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/cache"
	"StockCast/internal/collector"
	"StockCast/internal/dashboard"
	"StockCast/internal/forecast"
	"StockCast/internal/model"
)

type fakeSender struct {
	mu    sync.Mutex
	texts []string
}

func (f *fakeSender) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

// selectiveFetcher has no data for the tickers listed in missing.
type selectiveFetcher struct {
	collector.MockFetcher
	missing map[string]bool
}

func (f *selectiveFetcher) FetchDaily(ctx context.Context, ticker string, start, end time.Time) ([]model.OHLCV, error) {
	if f.missing[ticker] {
		return nil, nil
	}
	return f.MockFetcher.FetchDaily(ctx, ticker, start, end)
}

func newTestScheduler(t *testing.T, fetcher collector.Fetcher, sender Sender) (*Scheduler, cache.Store) {
	t.Helper()
	engine, err := forecast.NewEngine(forecast.ModelAdditive, forecast.DefaultAdditiveOptions())
	require.NoError(t, err)
	store := cache.NewMemory(16, time.Hour)
	svc := dashboard.NewService(collector.NewLoader(fetcher, store, nil), engine, nil, dashboard.Options{
		Title:        "Stock Prediction App",
		Tickers:      []string{"GOOG", "AAPL", "MSFT", "GME"},
		DefaultStart: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		MaxYears:     4,
		Now:          func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) },
	})
	return NewScheduler(context.Background(), svc, store, sender, []string{"GOOG", "AAPL"}), store
}

func TestRunPrewarmNow_FillsCache(t *testing.T) {
	fetcher := &collector.MockFetcher{Price: 100}
	s, store := newTestScheduler(t, fetcher, nil)

	assert.Equal(t, 2, s.RunPrewarmNow())
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 2, fetcher.Calls())

	// A page view over the default range is now a cache hit.
	sel := s.Service.Options.DefaultSelection()
	_, err := s.Service.Loader.Load(context.Background(), "GOOG", sel.Start, sel.End)
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.Calls())
}

func TestRunPrewarmNow_CountsFailures(t *testing.T) {
	fetcher := &selectiveFetcher{MockFetcher: collector.MockFetcher{Price: 100}, missing: map[string]bool{"AAPL": true}}
	s, store := newTestScheduler(t, fetcher, nil)

	assert.Equal(t, 1, s.RunPrewarmNow())
	assert.Equal(t, 1, store.Len())
}

func TestHandleCommand(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{Price: 100}, nil)
	ctx := context.Background()

	assert.Empty(t, s.HandleCommand(ctx, "   "))

	help := s.HandleCommand(ctx, "/help")
	assert.Contains(t, help, "/forecast TICKER")
	assert.Contains(t, help, "GOOG, AAPL, MSFT, GME")

	assert.Equal(t, "Usage: /forecast TICKER", s.HandleCommand(ctx, "/forecast"))

	reply := s.HandleCommand(ctx, "/forecast tsla")
	assert.Contains(t, reply, "<b>TSLA</b>")
	assert.Contains(t, reply, "Forecast")
	assert.Contains(t, reply, "interval")
}

func TestHandleCommand_ReportsFailure(t *testing.T) {
	fetcher := &selectiveFetcher{MockFetcher: collector.MockFetcher{Price: 100}, missing: map[string]bool{"GME": true}}
	s, _ := newTestScheduler(t, fetcher, nil)

	reply := s.HandleCommand(context.Background(), "/FORECAST gme")
	assert.Contains(t, reply, "GME")
	assert.Contains(t, reply, "no price data")
}

func TestDigestTask_SendsOneMessage(t *testing.T) {
	sender := &fakeSender{}
	fetcher := &selectiveFetcher{MockFetcher: collector.MockFetcher{Price: 100}, missing: map[string]bool{"AAPL": true}}
	s, _ := newTestScheduler(t, fetcher, sender)

	s.digestTask()

	require.Len(t, sender.texts, 1)
	msg := sender.texts[0]
	assert.Contains(t, msg, "StockCast digest")
	assert.Contains(t, msg, "<b>GOOG</b>")
	assert.Contains(t, msg, "Failed: AAPL")
}

func TestRegisterAll(t *testing.T) {
	s, _ := newTestScheduler(t, &collector.MockFetcher{}, nil)
	require.NoError(t, s.RegisterAll("0 */10 * * * *", "0 30 16 * * 1-5", "0 0 8 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 2, "digest needs a notifier")

	s, _ = newTestScheduler(t, &collector.MockFetcher{}, &fakeSender{})
	require.NoError(t, s.RegisterAll("0 */10 * * * *", "0 30 16 * * 1-5", "0 0 8 * * 1-5"))
	assert.Len(t, s.Cron.Entries(), 3)

	assert.Error(t, s.RegisterAll("not a cron", "0 30 16 * * 1-5", ""))
}

func TestSweepTask(t *testing.T) {
	s, store := newTestScheduler(t, &collector.MockFetcher{Price: 100}, nil)
	s.RunPrewarmNow()
	s.sweepTask()
	assert.Equal(t, 2, store.Len(), "fresh entries survive a sweep")
}
