package forecast

import (
	"fmt"
	"time"

	forecaster "github.com/aouyang1/go-forecaster"
	gfforecast "github.com/aouyang1/go-forecaster/forecast"
	"github.com/aouyang1/go-forecaster/timedataset"
	"gonum.org/v1/gonum/stat"

	"StockCast/internal/model"
)

const ModelGoForecaster = "goforecaster"

const (
	// Residual window bounds used by go-forecaster v0.1.0 when it sizes the
	// rolling stddev of the residual.
	gfResidualWindow    = 100
	gfMinResidualWindow = 2

	gfMinRows = 10
	week      = 7 * 24 * time.Hour
)

// GoForecaster adapts github.com/aouyang1/go-forecaster to Model. The
// library fits weekly seasonality and the rolling-stddev interval on the
// detrended closes; a least-squares line carries the trend because the
// library places changepoints relative to the predicted window.
type GoForecaster struct {
	intervalWidth float64

	origin time.Time
	alpha  float64
	beta   float64 // per day
	f      *forecaster.Forecaster
}

func NewGoForecaster(intervalWidth float64) *GoForecaster {
	if intervalWidth <= 0 || intervalWidth >= 1 {
		intervalWidth = 0.95
	}
	return &GoForecaster{intervalWidth: intervalWidth}
}

func (g *GoForecaster) Name() string { return ModelGoForecaster }

// options turns off the intraday terms, which are undefined for bars
// stamped at midnight, and fits the series once so values flagged as
// outliers never reach the residual as NaNs.
func (g *GoForecaster) options() *forecaster.Options {
	opt := forecaster.NewDefaultOptions()
	for _, o := range []*gfforecast.Options{opt.SeriesOptions, opt.ResidualOptions} {
		o.DailyOrders = 0
		o.WeeklyOrders = 1
	}
	opt.OutlierOptions = forecaster.NewOutlierOptions()
	opt.OutlierOptions.NumPasses = 0
	opt.OutlierOptions.LowerPercentile = 0.25
	opt.OutlierOptions.UpperPercentile = 0.75
	opt.OutlierOptions.TukeyFactor = 1.5
	opt.ResidualWindow = gfResidualWindow
	opt.ResidualZscore = zScore(g.intervalWidth)
	return opt
}

func (g *GoForecaster) Fit(ds []time.Time, y []float64) error {
	n := len(ds)
	if n != len(y) {
		return fmt.Errorf("ds and y lengths differ: %d vs %d", n, len(y))
	}
	if n < gfMinRows {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, n, gfMinRows)
	}
	// The residual model is fitted on the interior of the history; it needs a
	// full week so its weekly terms match the ones used at predict time.
	if span := residualSpan(ds); span < week {
		return fmt.Errorf("%w: residual window spans %s, need a week", ErrInsufficientData, span)
	}

	g.origin = ds[0]
	x := make([]float64, n)
	for i, t := range ds {
		x[i] = daysBetween(g.origin, t)
	}
	g.alpha, g.beta = stat.LinearRegression(x, y, nil, false)

	detrended := make([]float64, n)
	for i := range y {
		detrended[i] = y[i] - g.trend(ds[i])
	}
	td, err := timedataset.NewUnivariateDataset(ds, detrended)
	if err != nil {
		return fmt.Errorf("build go-forecaster dataset: %w", err)
	}

	f, err := forecaster.New(g.options())
	if err != nil {
		return fmt.Errorf("init go-forecaster: %w", err)
	}
	if err := f.Fit(td); err != nil {
		return fmt.Errorf("fit go-forecaster: %w", err)
	}
	g.f = f
	return nil
}

func (g *GoForecaster) Predict(ds []time.Time) ([]model.ForecastPoint, error) {
	if g.f == nil {
		return nil, ErrNotFitted
	}
	res, err := g.f.Predict(ds)
	if err != nil {
		return nil, fmt.Errorf("predict go-forecaster: %w", err)
	}
	if len(res.Forecast) != len(ds) {
		return nil, fmt.Errorf("go-forecaster returned %d points for %d timestamps", len(res.Forecast), len(ds))
	}
	out := make([]model.ForecastPoint, len(ds))
	for i, t := range ds {
		tr := g.trend(t)
		out[i] = model.ForecastPoint{
			DS:    t,
			YHat:  res.Forecast[i] + tr,
			Lower: res.Lower[i] + tr,
			Upper: res.Upper[i] + tr,
		}
	}
	return out, nil
}

func (g *GoForecaster) trend(t time.Time) float64 {
	return g.alpha + g.beta*daysBetween(g.origin, t)
}

// residualSpan is the time covered by the rolling-stddev series the
// library derives from n residuals.
func residualSpan(ds []time.Time) time.Duration {
	n := len(ds)
	w := gfResidualWindow
	if n/4 < w {
		w = n / 4
	}
	if w < gfMinResidualWindow {
		w = gfMinResidualWindow
	}
	start := w / 2
	end := n - w/2 - w%2 + 1
	if end-1 <= start {
		return 0
	}
	return ds[end-1].Sub(ds[start])
}
