package collector

import (
	"context"
	"fmt"
	"sort"
	"time"
	_ "time/tzdata"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"StockCast/internal/model"
)

// AlpacaFetcher implements Fetcher over the Alpaca market-data API.
type AlpacaFetcher struct {
	client *marketdata.Client
	loc    *time.Location
}

// NewAlpacaFetcher creates a fetcher. dataURL overrides the default
// market-data endpoint when non-empty.
func NewAlpacaFetcher(apiKey, apiSecret, dataURL string) *AlpacaFetcher {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	return &AlpacaFetcher{client: marketdata.NewClient(opts), loc: loc}
}

func (f *AlpacaFetcher) Name() string { return "alpaca" }

func (f *AlpacaFetcher) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]model.OHLCV, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	raw, err := f.client.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Start:      start,
		End:        end.Add(-time.Second),
		Adjustment: marketdata.Split,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca GetBars: %w", err)
	}
	bars := make([]model.OHLCV, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, model.OHLCV{
			Time:   dateOnly(ab.Timestamp.In(f.loc)),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: float64(ab.Volume),
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}
