// Package forecast fits a trend+seasonality model to a close-price series
// and extends it a number of calendar days into the future.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockCast/internal/logger"
	"StockCast/internal/metrics"
	"StockCast/internal/model"
)

// MinObservations is the smallest history a model accepts.
const MinObservations = 2

var (
	ErrInsufficientData = errors.New("not enough observations to fit")
	ErrNegativeHorizon  = errors.New("horizon must not be negative")
)

// Engine runs one fit/predict cycle per call.
type Engine struct {
	newModel      func() Model
	modelName     string
	intervalWidth float64
}

// NewEngine creates an Engine for the named model.
func NewEngine(modelName string, opts AdditiveOptions) (*Engine, error) {
	factory, err := Factory(modelName, opts)
	if err != nil {
		return nil, err
	}
	if opts.IntervalWidth <= 0 || opts.IntervalWidth >= 1 {
		opts.IntervalWidth = DefaultAdditiveOptions().IntervalWidth
	}
	return &Engine{
		newModel:      factory,
		modelName:     factory().Name(),
		intervalWidth: opts.IntervalWidth,
	}, nil
}

// ModelName reports which model the engine fits.
func (e *Engine) ModelName() string { return e.modelName }

// Forecast fits the frame and predicts its history plus horizonDays future
// calendar days.
func (e *Engine) Forecast(ctx context.Context, frame TrainingFrame, horizonDays int) (*model.ForecastFrame, error) {
	if horizonDays < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeHorizon, horizonDays)
	}
	if frame.Len() < MinObservations {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, frame.Len(), MinObservations)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	began := time.Now()
	m := e.newModel()
	if err := m.Fit(frame.DS, frame.Y); err != nil {
		metrics.ForecastDuration.WithLabelValues(e.modelName, "error").Observe(time.Since(began).Seconds())
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	points, err := m.Predict(FutureIndex(frame.DS, horizonDays))
	if err != nil {
		metrics.ForecastDuration.WithLabelValues(e.modelName, "error").Observe(time.Since(began).Seconds())
		return nil, err
	}
	elapsed := time.Since(began)
	metrics.ForecastDuration.WithLabelValues(e.modelName, "ok").Observe(elapsed.Seconds())

	logger.Debug("forecast computed",
		logger.String("symbol", frame.Symbol),
		logger.String("model", e.modelName),
		logger.Int("history", frame.Len()),
		logger.Int("horizon_days", horizonDays),
		logger.Duration("elapsed", elapsed),
	)

	return &model.ForecastFrame{
		Symbol:      frame.Symbol,
		Model:       e.modelName,
		Interval:    e.intervalWidth,
		HistoryLen:  frame.Len(),
		HorizonDays: horizonDays,
		Points:      points,
	}, nil
}
