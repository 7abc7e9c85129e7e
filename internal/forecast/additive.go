package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"StockCast/internal/model"
)

const (
	ModelAdditive = "additive"

	yearlyPeriod = 365.25
	weeklyPeriod = 7.0
	yearlyOrder  = 10
	weeklyOrder  = 3

	// Seasonal terms are only fitted once the history covers two cycles.
	minYearlySpanDays = 730
	minWeeklySpanDays = 14

	changepointRange = 0.8

	// Ridge penalties per observation.
	trendPenalty       = 1e-9
	changepointPenalty = 1e-2
	seasonalPenalty    = 1e-4
)

// ErrNotFitted is returned by Predict before a successful Fit.
var ErrNotFitted = errors.New("model is not fitted")

// AdditiveOptions tunes the additive model.
type AdditiveOptions struct {
	// IntervalWidth is the coverage of the uncertainty interval, e.g. 0.95.
	IntervalWidth float64
	// Changepoints is the maximum number of potential trend changepoints.
	Changepoints int
}

// DefaultAdditiveOptions mirrors the usual trend+seasonality defaults.
func DefaultAdditiveOptions() AdditiveOptions {
	return AdditiveOptions{IntervalWidth: 0.95, Changepoints: 25}
}

// Additive fits y(t) = trend(t) + yearly(t) + weekly(t) where trend is
// piecewise linear with hinge changepoints and each seasonality is a Fourier
// series. Coefficients come from ridge-regularised least squares on the
// scaled series.
type Additive struct {
	opts AdditiveOptions

	start     time.Time
	spanDays  float64
	yScale    float64
	cps       []float64 // changepoints in scaled time
	yearly    bool
	weekly    bool
	beta      []float64
	sigma     float64 // residual stddev, scaled units
	lastDS    time.Time
	nObs      int
	fitted    bool
	zInterval float64
}

// NewAdditive creates an unfitted model.
func NewAdditive(opts AdditiveOptions) *Additive {
	if opts.IntervalWidth <= 0 || opts.IntervalWidth >= 1 {
		opts.IntervalWidth = 0.95
	}
	if opts.Changepoints < 0 {
		opts.Changepoints = 0
	}
	return &Additive{opts: opts}
}

func (a *Additive) Name() string { return ModelAdditive }

func daysBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// Fit estimates the coefficients. ds must be sorted ascending.
func (a *Additive) Fit(ds []time.Time, y []float64) error {
	n := len(ds)
	if n != len(y) {
		return fmt.Errorf("ds and y lengths differ: %d vs %d", n, len(y))
	}
	if n < MinObservations {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientData, n, MinObservations)
	}

	a.start = ds[0]
	a.lastDS = ds[n-1]
	a.nObs = n
	a.spanDays = daysBetween(ds[0], ds[n-1])
	if a.spanDays <= 0 {
		return fmt.Errorf("%w: history spans no time", ErrInsufficientData)
	}
	a.yearly = a.spanDays >= minYearlySpanDays
	a.weekly = a.spanDays >= minWeeklySpanDays

	a.yScale = 0
	for _, v := range y {
		if math.Abs(v) > a.yScale {
			a.yScale = math.Abs(v)
		}
	}
	if a.yScale == 0 {
		a.yScale = 1
	}

	a.cps = a.changepoints(ds)

	p := a.numFeatures()
	x := mat.NewDense(n, p, nil)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		a.features(ds[i], x.RawRowView(i))
		ys[i] = y[i] / a.yScale
	}
	yv := mat.NewVecDense(n, ys)

	var xtx mat.SymDense
	xtx.SymOuterK(1, x.T())
	for j := 0; j < p; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+float64(n)*a.penalty(j))
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), yv)

	beta, err := solveNormal(&xtx, &xty)
	if err != nil {
		return fmt.Errorf("fit additive model: %w", err)
	}
	a.beta = beta

	var fitted, resid mat.VecDense
	fitted.MulVec(x, mat.NewVecDense(p, beta))
	resid.SubVec(yv, &fitted)
	sse := mat.Dot(&resid, &resid)
	a.sigma = math.Sqrt(sse / float64(n))
	a.zInterval = zScore(a.opts.IntervalWidth)
	a.fitted = true
	return nil
}

// Predict returns yhat and the interval for each timestamp. Points after the
// last observation get a widening interval.
func (a *Additive) Predict(ds []time.Time) ([]model.ForecastPoint, error) {
	if !a.fitted {
		return nil, ErrNotFitted
	}
	row := make([]float64, len(a.beta))
	out := make([]model.ForecastPoint, len(ds))
	for i, t := range ds {
		a.features(t, row)
		yhat := floats.Dot(row, a.beta) * a.yScale

		k := daysBetween(a.lastDS, t)
		if k < 0 {
			k = 0
		}
		half := a.zInterval * a.sigma * a.yScale * math.Sqrt(1+k/float64(a.nObs))
		out[i] = model.ForecastPoint{DS: t, YHat: yhat, Lower: yhat - half, Upper: yhat + half}
	}
	return out, nil
}

// changepoints spreads up to opts.Changepoints hinge locations evenly over
// the rows in the first 80% of history.
func (a *Additive) changepoints(ds []time.Time) []float64 {
	histRows := int(math.Floor(float64(len(ds)) * changepointRange))
	count := a.opts.Changepoints
	if count > histRows-1 {
		count = histRows - 1
	}
	if count <= 0 {
		return nil
	}
	cps := make([]float64, 0, count)
	for j := 1; j <= count; j++ {
		idx := int(math.Round(float64(j) * float64(histRows-1) / float64(count)))
		cps = append(cps, a.scaledTime(ds[idx]))
	}
	return cps
}

func (a *Additive) scaledTime(t time.Time) float64 {
	return daysBetween(a.start, t) / a.spanDays
}

func (a *Additive) numFeatures() int {
	p := 2 + len(a.cps)
	if a.yearly {
		p += 2 * yearlyOrder
	}
	if a.weekly {
		p += 2 * weeklyOrder
	}
	return p
}

func (a *Additive) penalty(j int) float64 {
	switch {
	case j < 2:
		return trendPenalty
	case j < 2+len(a.cps):
		return changepointPenalty
	default:
		return seasonalPenalty
	}
}

// features fills row with the design-matrix row for t.
func (a *Additive) features(t time.Time, row []float64) {
	s := a.scaledTime(t)
	row[0] = 1
	row[1] = s
	j := 2
	for _, cp := range a.cps {
		row[j] = math.Max(0, s-cp)
		j++
	}
	// Seasonal phase uses absolute days so it does not depend on the
	// history window.
	epochDays := float64(t.Unix()) / 86400
	if a.yearly {
		j = fourier(row, j, epochDays, yearlyPeriod, yearlyOrder)
	}
	if a.weekly {
		fourier(row, j, epochDays, weeklyPeriod, weeklyOrder)
	}
}

// zScore is the two-sided standard normal quantile for a coverage width.
func zScore(width float64) float64 {
	return distuv.UnitNormal.Quantile(0.5 + width/2)
}

func fourier(row []float64, j int, days, period float64, order int) int {
	for k := 1; k <= order; k++ {
		x := 2 * math.Pi * float64(k) * days / period
		row[j] = math.Sin(x)
		row[j+1] = math.Cos(x)
		j += 2
	}
	return j
}
