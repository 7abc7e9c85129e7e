package collector

import (
	"context"
	"time"

	"StockCast/internal/model"
)

// Fetcher retrieves daily bars for symbol over [start, end).
type Fetcher interface {
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error)
	Name() string
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
