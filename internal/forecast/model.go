package forecast

import (
	"fmt"
	"time"

	"StockCast/internal/model"
)

// Model is a fit-then-predict time-series model. Implementations are not
// safe for concurrent use; the Engine builds one per forecast.
type Model interface {
	Name() string
	Fit(ds []time.Time, y []float64) error
	Predict(ds []time.Time) ([]model.ForecastPoint, error)
}

// Factory returns a constructor for the named model.
func Factory(name string, opts AdditiveOptions) (func() Model, error) {
	switch name {
	case "", ModelAdditive:
		return func() Model { return NewAdditive(opts) }, nil
	case ModelGoForecaster:
		return func() Model { return NewGoForecaster(opts.IntervalWidth) }, nil
	default:
		return nil, fmt.Errorf("unknown forecast model %q", name)
	}
}
