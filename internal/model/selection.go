package model

import "time"

// ChartType selects how the price chart is drawn.
type ChartType string

const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
)

// Horizon is the forecast length as entered in the sidebar.
type Horizon struct {
	Years  int `json:"years"`
	Months int `json:"months"`
	Days   int `json:"days"`
}

// TotalDays converts the horizon with the 365/30 calendar approximation.
func (h Horizon) TotalDays() int {
	return h.Years*365 + h.Months*30 + h.Days
}

// Selection is the complete widget state of one dashboard render.
type Selection struct {
	Ticker         string    `json:"ticker"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Horizon        Horizon   `json:"horizon"`
	ChartType      ChartType `json:"chart_type"`
	ShowIndicators bool      `json:"show_indicators"`
	CompareTicker  string    `json:"compare_ticker,omitempty"`
}

// CompareEnabled reports whether a second ticker was picked.
func (s Selection) CompareEnabled() bool {
	return s.CompareTicker != "" && s.CompareTicker != s.Ticker
}
