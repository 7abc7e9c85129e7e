package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"StockCast/internal/cache"
	"StockCast/internal/logger"
	"StockCast/internal/metrics"
	"StockCast/internal/model"
	"StockCast/internal/recorder"
)

var (
	// ErrNoData is returned when the provider has no bars for the range.
	ErrNoData = errors.New("no price data returned")
	// ErrUnknownProvider is returned by NewFetcher for an unsupported name.
	ErrUnknownProvider = errors.New("unknown data provider")
	// ErrProvider wraps failures reported by the market-data provider.
	ErrProvider = errors.New("market data provider failed")
)

// MockFetcher returns controllable fixed data for development and testing.
type MockFetcher struct {
	Price     float64
	DailyData []model.OHLCV
	Err       error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string { return "mock" }

// Calls returns how many times FetchDaily ran.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockFetcher) FetchDaily(ctx context.Context, _ string, start, end time.Time) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		var out []model.OHLCV
		for _, b := range m.DailyData {
			if !b.Time.Before(start) && b.Time.Before(end) {
				out = append(out, b)
			}
		}
		return out, nil
	}
	return generateMockBars(m.Price, start, end), nil
}

// generateMockBars emits one slowly drifting bar per weekday in [start, end).
func generateMockBars(basePrice float64, start, end time.Time) []model.OHLCV {
	if basePrice == 0 {
		basePrice = 100
	}
	var bars []model.OHLCV
	i := 0
	for d := dateOnly(start); d.Before(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		p := basePrice * (1 + float64(i)*0.001)
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}

// Options selects and configures a Fetcher.
type Options struct {
	Provider  string
	BaseURL   string
	APIKey    string
	APISecret string
	Proxy     string
	Timeout   time.Duration
}

// NewFetcher builds the Fetcher named by opts.Provider.
func NewFetcher(opts Options) (Fetcher, error) {
	switch opts.Provider {
	case "", "yahoo":
		f := NewYahooFetcher(opts.Proxy, opts.Timeout)
		if opts.BaseURL != "" {
			f.BaseURL = opts.BaseURL
		}
		return f, nil
	case "alpaca":
		return NewAlpacaFetcher(opts.APIKey, opts.APISecret, opts.BaseURL), nil
	case "rest":
		return NewRESTFetcher(opts.BaseURL, opts.APIKey, opts.Proxy, opts.Timeout), nil
	case "mock":
		return &MockFetcher{Price: 100}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, opts.Provider)
	}
}

// Loader is the memoized Data Loader in front of a Fetcher.
type Loader struct {
	Fetcher  Fetcher
	Cache    cache.Store
	Recorder recorder.Recorder

	// inflight collapses concurrent misses for the same key into one fetch.
	inflight singleflight.Group
}

// NewLoader creates a Loader. A nil store gets a small in-memory cache and a
// nil recorder a no-op one.
func NewLoader(fetcher Fetcher, store cache.Store, rec recorder.Recorder) *Loader {
	if store == nil {
		store = cache.NewMemory(64, time.Hour)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Loader{Fetcher: fetcher, Cache: store, Recorder: rec}
}

// Load returns the daily series for ticker over [start, end). Identical
// calls are answered from the cache until the entry expires.
func (l *Loader) Load(ctx context.Context, ticker string, start, end time.Time) (*model.PriceSeries, error) {
	key := cache.NewKey(ticker, dateOnly(start), dateOnly(end))

	if series, ok, err := l.Cache.Get(ctx, key); err != nil {
		logger.Warn("series cache read failed", logger.String("key", key.String()), logger.ErrorField(err))
	} else if ok {
		metrics.CacheRequests.WithLabelValues("hit").Inc()
		return series, nil
	}
	metrics.CacheRequests.WithLabelValues("miss").Inc()

	v, err, shared := l.inflight.Do(key.String(), func() (interface{}, error) {
		// A call that finished between our miss and Do has already filled the cache.
		if series, ok, err := l.Cache.Get(ctx, key); err == nil && ok {
			return series, nil
		}
		return l.fetch(ctx, key)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("series load shared", logger.String("key", key.String()))
	}
	return v.(*model.PriceSeries), nil
}

// fetch calls the provider for key and stores the result in the cache.
func (l *Loader) fetch(ctx context.Context, key cache.Key) (*model.PriceSeries, error) {
	began := time.Now()
	bars, err := l.Fetcher.FetchDaily(ctx, key.Ticker, key.Start, key.End)
	elapsed := time.Since(began)
	if err == nil && len(bars) == 0 {
		err = fmt.Errorf("%w for %s", ErrNoData, key.Ticker)
	}
	l.record(key, len(bars), elapsed, err)
	if err != nil {
		metrics.FetchDuration.WithLabelValues(l.Fetcher.Name(), "error").Observe(elapsed.Seconds())
		if !errors.Is(err, ErrNoData) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", ErrProvider, err)
		}
		return nil, fmt.Errorf("load %s: %w", key.Ticker, err)
	}
	metrics.FetchDuration.WithLabelValues(l.Fetcher.Name(), "ok").Observe(elapsed.Seconds())

	series := &model.PriceSeries{
		Symbol:    key.Ticker,
		Start:     key.Start,
		End:       key.End,
		Bars:      bars,
		Source:    l.Fetcher.Name(),
		FetchedAt: time.Now(),
	}
	if err := l.Cache.Set(ctx, key, series); err != nil {
		logger.Warn("series cache write failed", logger.String("key", key.String()), logger.ErrorField(err))
	}
	logger.Debug("series loaded",
		logger.String("ticker", key.Ticker),
		logger.Int("rows", len(bars)),
		logger.Duration("elapsed", elapsed),
	)
	return series, nil
}

func (l *Loader) record(key cache.Key, rows int, elapsed time.Duration, fetchErr error) {
	evt := &recorder.FetchEvent{
		Ticker:   key.Ticker,
		Start:    key.Start,
		End:      key.End,
		Source:   l.Fetcher.Name(),
		Rows:     rows,
		Duration: elapsed,
	}
	if fetchErr != nil {
		evt.Err = fetchErr.Error()
	}
	if err := l.Recorder.RecordFetch(evt); err != nil {
		logger.Error("record fetch event", logger.ErrorField(err))
	}
}

// NormalizeTicker upper-cases and trims a user supplied symbol.
func NormalizeTicker(t string) string {
	return strings.ToUpper(strings.TrimSpace(t))
}
