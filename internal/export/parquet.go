// Package export writes price series and forecasts to Parquet files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"StockCast/internal/model"
)

// PriceRecord is the Parquet schema for one daily bar.
type PriceRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Open      float64 `parquet:"open"`
	High      float64 `parquet:"high"`
	Low       float64 `parquet:"low"`
	Close     float64 `parquet:"close"`
	Volume    float64 `parquet:"volume"`
}

// ForecastRecord is the Parquet schema for one forecast row.
type ForecastRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"ds,timestamp(millisecond)"` // Unix ms
	YHat      float64 `parquet:"yhat"`
	Lower     float64 `parquet:"yhat_lower"`
	Upper     float64 `parquet:"yhat_upper"`
	Future    bool    `parquet:"future"`
	Model     string  `parquet:"model"`
}

// SeriesPath returns <dir>/<SYMBOL>_<start>_<end>.parquet.
func SeriesPath(dir string, series *model.PriceSeries) string {
	name := fmt.Sprintf("%s_%s_%s.parquet", strings.ToUpper(series.Symbol),
		series.Start.Format("20060102"), series.End.Format("20060102"))
	return filepath.Join(dir, name)
}

// ForecastPath returns <dir>/<SYMBOL>_forecast_<horizon>d.parquet.
func ForecastPath(dir string, fc *model.ForecastFrame) string {
	return filepath.Join(dir, fmt.Sprintf("%s_forecast_%dd.parquet", strings.ToUpper(fc.Symbol), fc.HorizonDays))
}

// WriteSeries writes every bar of series to path.
func WriteSeries(path string, series *model.PriceSeries) error {
	records := make([]PriceRecord, len(series.Bars))
	for i, b := range series.Bars {
		records[i] = PriceRecord{
			Symbol:    series.Symbol,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return writeParquetFile(path, records)
}

// WriteForecast writes every point of fc to path.
func WriteForecast(path string, fc *model.ForecastFrame) error {
	records := make([]ForecastRecord, len(fc.Points))
	for i, p := range fc.Points {
		records[i] = ForecastRecord{
			Symbol:    fc.Symbol,
			Timestamp: p.DS.UnixMilli(),
			YHat:      p.YHat,
			Lower:     p.Lower,
			Upper:     p.Upper,
			Future:    i >= fc.HistoryLen,
			Model:     fc.Model,
		}
	}
	return writeParquetFile(path, records)
}

// ReadSeries reads a file written by WriteSeries back into bars.
func ReadSeries(path string) ([]model.OHLCV, error) {
	records, err := parquet.ReadFile[PriceRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	bars := make([]model.OHLCV, len(records))
	for i, r := range records {
		bars[i] = model.OHLCV{
			Time:   time.UnixMilli(r.Timestamp).UTC(),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	return bars, nil
}

// ReadForecast reads a file written by WriteForecast.
func ReadForecast(path string) ([]ForecastRecord, error) {
	records, err := parquet.ReadFile[ForecastRecord](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return records, nil
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := parquet.WriteFile(path, records); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
