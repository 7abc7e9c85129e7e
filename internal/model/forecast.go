package model

import "time"

// ForecastPoint is one row of a forecast: fitted or predicted value plus the
// uncertainty interval.
type ForecastPoint struct {
	DS    time.Time `json:"ds"`
	YHat  float64   `json:"yhat"`
	Lower float64   `json:"yhat_lower"`
	Upper float64   `json:"yhat_upper"`
}

// ForecastFrame covers the history plus HorizonDays future calendar days.
type ForecastFrame struct {
	Symbol      string          `json:"symbol"`
	Model       string          `json:"model"`
	Interval    float64         `json:"interval_width"`
	HistoryLen  int             `json:"history_len"`
	HorizonDays int             `json:"horizon_days"`
	Points      []ForecastPoint `json:"points"`
}

// Future returns only the points past the history.
func (f *ForecastFrame) Future() []ForecastPoint {
	if f.HistoryLen >= len(f.Points) {
		return nil
	}
	return f.Points[f.HistoryLen:]
}

// Last returns the final point, or false for an empty frame.
func (f *ForecastFrame) Last() (ForecastPoint, bool) {
	if len(f.Points) == 0 {
		return ForecastPoint{}, false
	}
	return f.Points[len(f.Points)-1], true
}
