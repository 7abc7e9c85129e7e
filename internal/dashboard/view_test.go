package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/cache"
	"StockCast/internal/collector"
	"StockCast/internal/forecast"
	"StockCast/internal/model"
	"StockCast/internal/recorder"
)

// runLog keeps every recorded forecast run in memory.
type runLog struct {
	recorder.NoopRecorder
	mu   sync.Mutex
	runs []recorder.ForecastRun
}

func (l *runLog) RecordForecast(run *recorder.ForecastRun) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = append(l.runs, *run)
	return nil
}

func (l *runLog) RecentForecasts(limit int) ([]recorder.ForecastRun, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]recorder.ForecastRun, 0, limit)
	for i := len(l.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.runs[i])
	}
	return out, nil
}

func newTestService(t *testing.T, fetcher collector.Fetcher) (*Service, *runLog) {
	t.Helper()
	engine, err := forecast.NewEngine(forecast.ModelAdditive, forecast.DefaultAdditiveOptions())
	require.NoError(t, err)
	runs := &runLog{}
	loader := collector.NewLoader(fetcher, cache.NewMemory(16, time.Hour), runs)
	return NewService(loader, engine, runs, testOptions()), runs
}

func shortSelection() model.Selection {
	sel := testOptions().DefaultSelection()
	sel.Horizon = model.Horizon{Months: 1}
	return sel
}

func TestRender_AllSections(t *testing.T) {
	svc, runs := newTestService(t, &collector.MockFetcher{Price: 100})
	sel := shortSelection()
	sel.ShowIndicators = true
	sel.CompareTicker = "AAPL"

	v := svc.Render(context.Background(), sel)
	require.NoError(t, v.Err)
	assert.Empty(t, v.Message)

	assert.Equal(t, "Stock Prediction App", v.Title)
	require.NotNil(t, v.Stats)
	assert.Len(t, v.RawTail, tailRows)

	require.NotNil(t, v.PriceChart)
	require.Len(t, v.PriceChart.Data, 2)
	assert.Equal(t, "stock_open", v.PriceChart.Data[0].Name)
	assert.Equal(t, "stock_close", v.PriceChart.Data[1].Name)
	assert.True(t, v.PriceChart.Layout.XAxis.RangeSlider.Visible)

	require.NotNil(t, v.IndicatorChart)
	assert.Len(t, v.IndicatorChart.Data, 3)
	require.NotNil(t, v.CompareChart)
	assert.Equal(t, "AAPL", v.CompareChart.Data[1].Name)

	require.NotNil(t, v.ForecastChart)
	names := make([]string, 0, len(v.ForecastChart.Data))
	for _, tr := range v.ForecastChart.Data {
		names = append(names, tr.Name)
	}
	assert.Equal(t, []string{"Actual", "Lower Bound", "Predicted", "Upper Bound"}, names)
	assert.Equal(t, "tonexty", v.ForecastChart.Data[2].Fill)

	require.Len(t, v.ForecastTail, tailRows)
	last := v.ForecastTail[tailRows-1]
	// last bar is Friday 2024-05-31, plus 30 calendar days
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), last.DS)
	assert.LessOrEqual(t, last.Lower, last.YHat)
	assert.LessOrEqual(t, last.YHat, last.Upper)

	require.Len(t, runs.runs, 1)
	assert.Equal(t, runs.runs[0].ID, v.ForecastRunID)
	assert.Equal(t, "GOOG", runs.runs[0].Ticker)
	assert.Equal(t, 30, runs.runs[0].HorizonDays)
}

func TestRender_OptionalSectionsOff(t *testing.T) {
	svc, _ := newTestService(t, &collector.MockFetcher{Price: 100})
	sel := shortSelection()
	sel.CompareTicker = sel.Ticker

	v := svc.Render(context.Background(), sel)
	require.NoError(t, v.Err)
	assert.Nil(t, v.IndicatorChart)
	assert.Nil(t, v.CompareChart, "comparing a ticker with itself draws nothing")
	assert.NotNil(t, v.ForecastChart)
}

func TestRender_BarChart(t *testing.T) {
	svc, _ := newTestService(t, &collector.MockFetcher{Price: 100})
	sel := shortSelection()
	sel.ChartType = model.ChartBar

	v := svc.Render(context.Background(), sel)
	require.NoError(t, v.Err)
	assert.Equal(t, "bar", v.PriceChart.Data[0].Type)
	assert.Equal(t, "bar", v.PriceChart.Data[1].Type)
}

func TestRender_LoadFailureStopsEverything(t *testing.T) {
	svc, runs := newTestService(t, &collector.MockFetcher{Err: errors.New("connection reset")})

	v := svc.Render(context.Background(), shortSelection())
	require.Error(t, v.Err)
	assert.ErrorIs(t, v.Err, collector.ErrProvider)
	assert.Contains(t, v.Message, "load data")
	assert.Nil(t, v.Stats)
	assert.Nil(t, v.PriceChart)
	assert.Nil(t, v.ForecastChart)
	assert.Empty(t, runs.runs)
}

func TestRender_ForecastFailureKeepsEarlierSections(t *testing.T) {
	one := []model.OHLCV{{
		Time: time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC),
		Open: 10, High: 11, Low: 9, Close: 10.5, Volume: 100,
	}}
	svc, _ := newTestService(t, &collector.MockFetcher{DailyData: one})

	v := svc.Render(context.Background(), shortSelection())
	require.Error(t, v.Err)
	assert.ErrorIs(t, v.Err, forecast.ErrInsufficientData)
	assert.Contains(t, v.Message, "forecast")
	assert.NotNil(t, v.Stats)
	assert.Len(t, v.RawTail, 1)
	assert.NotNil(t, v.PriceChart)
	assert.Nil(t, v.ForecastChart)
	assert.Empty(t, v.ForecastRunID)
}

func TestService_Forecast(t *testing.T) {
	svc, runs := newTestService(t, &collector.MockFetcher{Price: 50})
	sel := shortSelection()

	fc, err := svc.Forecast(context.Background(), "GOOG", sel.Start, sel.End, 10)
	require.NoError(t, err)
	assert.Equal(t, "GOOG", fc.Symbol)
	assert.Len(t, fc.Future(), 10)
	assert.Len(t, runs.runs, 1)

	_, err = svc.Forecast(context.Background(), "GOOG", sel.Start, sel.End, -1)
	assert.ErrorIs(t, err, forecast.ErrNegativeHorizon)
}
