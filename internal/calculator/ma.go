package calculator

import (
	"errors"
	"math"
	"time"

	"github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"StockCast/internal/model"
)

// Overlay windows drawn on the indicator chart.
const (
	ShortWindow = 30
	LongWindow  = 100
)

// sessionLength is the candle period handed to techan. Only close prices feed
// the SMA, so any period shorter than a day keeps candles ordered.
const sessionLength = 6*time.Hour + 30*time.Minute

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMASeries returns the trailing simple moving average aligned with prices.
// The first window-1 entries are NaN.
func SMASeries(prices []float64, window int) model.Series {
	out := make(model.Series, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	if window <= 0 || len(prices) < window {
		return out
	}

	series := techan.NewTimeSeries()
	base := time.Date(2000, 1, 3, 14, 30, 0, 0, time.UTC)
	for i, p := range prices {
		candle := techan.NewCandle(techan.NewTimePeriod(base.AddDate(0, 0, i), sessionLength))
		candle.OpenPrice = big.NewDecimal(p)
		candle.MaxPrice = big.NewDecimal(p)
		candle.MinPrice = big.NewDecimal(p)
		candle.ClosePrice = big.NewDecimal(p)
		series.AddCandle(candle)
	}

	sma := techan.NewSimpleMovingAverage(techan.NewClosePriceIndicator(series), window)
	for i := window - 1; i < len(prices); i++ {
		out[i] = sma.Calculate(i).Float()
	}
	return out
}

// Overlay computes the SMA30 and SMA100 columns for the indicator chart.
func Overlay(bars []model.OHLCV) model.IndicatorOverlay {
	closes := extractCloses(bars)
	return model.IndicatorOverlay{
		SMA30:  SMASeries(closes, ShortWindow),
		SMA100: SMASeries(closes, LongWindow),
	}
}

func extractCloses(bars []model.OHLCV) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
