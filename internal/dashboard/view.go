package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"StockCast/internal/calculator"
	"StockCast/internal/collector"
	"StockCast/internal/forecast"
	"StockCast/internal/logger"
	"StockCast/internal/model"
	"StockCast/internal/recorder"
)

// tailRows is how many rows the raw data and forecast tables show.
const tailRows = 5

// View is one full render of the dashboard. Sections after a failure are
// left empty and Err says what went wrong.
type View struct {
	Title     string          `json:"title"`
	Tickers   []string        `json:"tickers"`
	Selection model.Selection `json:"selection"`

	Stats          *model.KeyStats       `json:"stats,omitempty"`
	RawTail        []model.OHLCV         `json:"raw_tail,omitempty"`
	PriceChart     *Figure               `json:"price_chart,omitempty"`
	IndicatorChart *Figure               `json:"indicator_chart,omitempty"`
	CompareChart   *Figure               `json:"compare_chart,omitempty"`
	ForecastChart  *Figure               `json:"forecast_chart,omitempty"`
	ForecastTail   []model.ForecastPoint `json:"forecast_tail,omitempty"`
	ForecastRunID  string                `json:"forecast_run_id,omitempty"`

	Err     error  `json:"-"`
	Message string `json:"error,omitempty"`
}

func (v *View) fail(section string, err error) *View {
	v.Err = fmt.Errorf("%s: %w", section, err)
	v.Message = v.Err.Error()
	return v
}

// Service renders views from a selection.
type Service struct {
	Loader   *collector.Loader
	Engine   *forecast.Engine
	Recorder recorder.Recorder
	Options  Options
}

// NewService wires a Service. A nil recorder records nothing.
func NewService(loader *collector.Loader, engine *forecast.Engine, rec recorder.Recorder, opts Options) *Service {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Service{Loader: loader, Engine: engine, Recorder: rec, Options: opts}
}

// Render runs the whole page top to bottom for sel. The first failing step
// stops the render; everything rendered before it is kept.
func (s *Service) Render(ctx context.Context, sel model.Selection) *View {
	v := &View{
		Title:     s.Options.Title,
		Tickers:   s.Options.Tickers,
		Selection: sel,
	}

	series, err := s.Loader.Load(ctx, sel.Ticker, sel.Start, sel.End)
	if err != nil {
		return v.fail("load data", err)
	}

	stats, err := calculator.Summarize(series.Bars)
	if err != nil {
		return v.fail("key statistics", err)
	}
	v.Stats = &stats
	v.RawTail = series.Tail(tailRows)
	v.PriceChart = PriceChart(series, sel.ChartType)

	if sel.ShowIndicators {
		v.IndicatorChart = IndicatorChart(series, calculator.Overlay(series.Bars))
	}

	if sel.CompareEnabled() {
		other, err := s.Loader.Load(ctx, sel.CompareTicker, sel.Start, sel.End)
		if err != nil {
			return v.fail("load comparison", err)
		}
		v.CompareChart = CompareChart(series, other)
	}

	began := time.Now()
	fc, err := s.Engine.Forecast(ctx, forecast.NewTrainingFrame(series), sel.Horizon.TotalDays())
	if err != nil {
		return v.fail("forecast", err)
	}
	v.ForecastChart = ForecastChart(series, fc)
	v.ForecastTail = forecastTail(fc.Points, tailRows)
	v.ForecastRunID = s.record(fc, time.Since(began))
	return v
}

// Forecast loads the series and runs only the forecast step.
func (s *Service) Forecast(ctx context.Context, ticker string, start, end time.Time, horizonDays int) (*model.ForecastFrame, error) {
	series, err := s.Loader.Load(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	began := time.Now()
	fc, err := s.Engine.Forecast(ctx, forecast.NewTrainingFrame(series), horizonDays)
	if err != nil {
		return nil, err
	}
	s.record(fc, time.Since(began))
	return fc, nil
}

func (s *Service) record(fc *model.ForecastFrame, elapsed time.Duration) string {
	run := &recorder.ForecastRun{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now(),
		Ticker:      fc.Symbol,
		Model:       fc.Model,
		HistoryRows: fc.HistoryLen,
		HorizonDays: fc.HorizonDays,
		Duration:    elapsed,
	}
	if last, ok := fc.Last(); ok {
		run.FinalDS = last.DS
		run.FinalYHat = last.YHat
		run.FinalLower = last.Lower
		run.FinalUpper = last.Upper
	}
	if err := s.Recorder.RecordForecast(run); err != nil {
		logger.Error("record forecast run", logger.String("ticker", fc.Symbol), logger.ErrorField(err))
	}
	return run.ID
}

func forecastTail(points []model.ForecastPoint, n int) []model.ForecastPoint {
	if n >= len(points) {
		return points
	}
	return points[len(points)-n:]
}
