package dashboard

import (
	"fmt"
	"time"

	"StockCast/internal/model"
)

// Figure is a Plotly figure: traces plus layout, sent to the browser as JSON.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

type Trace struct {
	Type       string       `json:"type"`
	Mode       string       `json:"mode,omitempty"`
	Name       string       `json:"name"`
	X          []string     `json:"x"`
	Y          model.Series `json:"y"`
	Fill       string       `json:"fill,omitempty"`
	FillColor  string       `json:"fillcolor,omitempty"`
	Line       *Line        `json:"line,omitempty"`
	Marker     *Marker      `json:"marker,omitempty"`
	ShowLegend *bool        `json:"showlegend,omitempty"`
	HoverInfo  string       `json:"hoverinfo,omitempty"`
}

type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width"`
	Dash  string  `json:"dash,omitempty"`
}

type Marker struct {
	Color string `json:"color,omitempty"`
	Size  int    `json:"size,omitempty"`
}

type Layout struct {
	Title      Text   `json:"title"`
	XAxis      Axis   `json:"xaxis"`
	YAxis      Axis   `json:"yaxis"`
	Height     int    `json:"height,omitempty"`
	HoverMode  string `json:"hovermode,omitempty"`
	Template   string `json:"template,omitempty"`
	ShowLegend bool   `json:"showlegend"`
}

type Text struct {
	Text string `json:"text"`
}

type Axis struct {
	Title       *Text        `json:"title,omitempty"`
	Type        string       `json:"type,omitempty"`
	RangeSlider *RangeSlider `json:"rangeslider,omitempty"`
}

type RangeSlider struct {
	Visible bool `json:"visible"`
}

const (
	colorOpen     = "#636EFA"
	colorClose    = "#EF553B"
	colorSMA30    = "#00CC96"
	colorSMA100   = "#AB63FA"
	colorCompare  = "#FFA15A"
	colorForecast = "#0072B2"
	colorBand     = "rgba(0, 114, 178, 0.2)"
	colorActual   = "black"
)

func dateAxis(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format(dateLayout)
	}
	return out
}

func barDates(bars []model.OHLCV) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Time.Format(dateLayout)
	}
	return out
}

func column(bars []model.OHLCV, f func(model.OHLCV) float64) model.Series {
	out := make(model.Series, len(bars))
	for i, b := range bars {
		out[i] = f(b)
	}
	return out
}

func timeSeriesLayout(title string) Layout {
	return Layout{
		Title:      Text{Text: title},
		XAxis:      Axis{Type: "date", RangeSlider: &RangeSlider{Visible: true}},
		YAxis:      Axis{Title: &Text{Text: "Price (USD)"}},
		Height:     480,
		HoverMode:  "x unified",
		ShowLegend: true,
	}
}

// PriceChart draws open and close, as lines or bars.
func PriceChart(series *model.PriceSeries, chart model.ChartType) *Figure {
	x := barDates(series.Bars)
	open := Trace{Name: "stock_open", X: x, Y: column(series.Bars, func(b model.OHLCV) float64 { return b.Open })}
	cls := Trace{Name: "stock_close", X: x, Y: column(series.Bars, func(b model.OHLCV) float64 { return b.Close })}
	if chart == model.ChartBar {
		open.Type, cls.Type = "bar", "bar"
		open.Marker = &Marker{Color: colorOpen}
		cls.Marker = &Marker{Color: colorClose}
	} else {
		open.Type, cls.Type = "scatter", "scatter"
		open.Mode, cls.Mode = "lines", "lines"
		open.Line = &Line{Color: colorOpen, Width: 1.5}
		cls.Line = &Line{Color: colorClose, Width: 1.5}
	}
	return &Figure{
		Data:   []Trace{open, cls},
		Layout: timeSeriesLayout(fmt.Sprintf("%s time series data", series.Symbol)),
	}
}

// IndicatorChart overlays the moving averages on the close.
func IndicatorChart(series *model.PriceSeries, overlay model.IndicatorOverlay) *Figure {
	x := barDates(series.Bars)
	return &Figure{
		Data: []Trace{
			{Type: "scatter", Mode: "lines", Name: "Close", X: x, Y: model.Series(series.Closes()),
				Line: &Line{Color: colorClose, Width: 1.2}},
			{Type: "scatter", Mode: "lines", Name: "SMA 30", X: x, Y: overlay.SMA30,
				Line: &Line{Color: colorSMA30, Width: 1.5}},
			{Type: "scatter", Mode: "lines", Name: "SMA 100", X: x, Y: overlay.SMA100,
				Line: &Line{Color: colorSMA100, Width: 1.5}},
		},
		Layout: timeSeriesLayout(fmt.Sprintf("%s moving averages", series.Symbol)),
	}
}

// CompareChart overlays the closes of two independently loaded series.
func CompareChart(primary, other *model.PriceSeries) *Figure {
	return &Figure{
		Data: []Trace{
			{Type: "scatter", Mode: "lines", Name: primary.Symbol, X: barDates(primary.Bars),
				Y: model.Series(primary.Closes()), Line: &Line{Color: colorClose, Width: 1.5}},
			{Type: "scatter", Mode: "lines", Name: other.Symbol, X: barDates(other.Bars),
				Y: model.Series(other.Closes()), Line: &Line{Color: colorCompare, Width: 1.5}},
		},
		Layout: timeSeriesLayout(fmt.Sprintf("%s vs %s close", primary.Symbol, other.Symbol)),
	}
}

// ForecastChart draws actuals as markers, the fitted/predicted line and the
// shaded interval between lower and upper bounds.
func ForecastChart(series *model.PriceSeries, fc *model.ForecastFrame) *Figure {
	ds := make([]time.Time, len(fc.Points))
	yhat := make(model.Series, len(fc.Points))
	lower := make(model.Series, len(fc.Points))
	upper := make(model.Series, len(fc.Points))
	for i, p := range fc.Points {
		ds[i] = p.DS
		yhat[i] = p.YHat
		lower[i] = p.Lower
		upper[i] = p.Upper
	}
	x := dateAxis(ds)
	hidden := false

	layout := timeSeriesLayout(fmt.Sprintf("%s forecast (%d days)", fc.Symbol, fc.HorizonDays))
	layout.YAxis.Title = &Text{Text: "y"}
	layout.XAxis.Title = &Text{Text: "ds"}

	return &Figure{
		Data: []Trace{
			{Type: "scatter", Mode: "markers", Name: "Actual", X: barDates(series.Bars),
				Y: model.Series(series.Closes()), Marker: &Marker{Color: colorActual, Size: 4}},
			{Type: "scatter", Mode: "lines", Name: "Lower Bound", X: x, Y: lower,
				Line: &Line{Width: 0}, ShowLegend: &hidden, HoverInfo: "skip"},
			{Type: "scatter", Mode: "lines", Name: "Predicted", X: x, Y: yhat,
				Line: &Line{Color: colorForecast, Width: 2}, Fill: "tonexty", FillColor: colorBand},
			{Type: "scatter", Mode: "lines", Name: "Upper Bound", X: x, Y: upper,
				Line: &Line{Width: 0}, Fill: "tonexty", FillColor: colorBand, ShowLegend: &hidden, HoverInfo: "skip"},
		},
		Layout: layout,
	}
}
