// Package cache memoizes price series by (ticker, start, end).
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockCast/internal/model"
)

// Key identifies one Data Loader call.
type Key struct {
	Ticker string
	Start  time.Time
	End    time.Time
}

// NewKey normalizes the ticker and truncates the dates to days.
func NewKey(ticker string, start, end time.Time) Key {
	return Key{
		Ticker: strings.ToUpper(strings.TrimSpace(ticker)),
		Start:  start.UTC().Truncate(24 * time.Hour),
		End:    end.UTC().Truncate(24 * time.Hour),
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s", k.Ticker, k.Start.Format("2006-01-02"), k.End.Format("2006-01-02"))
}

// Store is a bounded series cache.
type Store interface {
	Get(ctx context.Context, key Key) (*model.PriceSeries, bool, error)
	Set(ctx context.Context, key Key, series *model.PriceSeries) error
	// Sweep drops expired entries and returns how many were removed.
	Sweep(ctx context.Context) (int, error)
	Len() int
	Name() string
}
