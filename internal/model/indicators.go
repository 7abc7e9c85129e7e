package model

import (
	"encoding/json"
	"math"
)

// Series is a float column where NaN marks an undefined value. It encodes
// NaN as JSON null so charts render gaps.
type Series []float64

func (s Series) MarshalJSON() ([]byte, error) {
	out := make([]*float64, len(s))
	for i := range s {
		if !math.IsNaN(s[i]) && !math.IsInf(s[i], 0) {
			v := s[i]
			out[i] = &v
		}
	}
	return json.Marshal(out)
}

// Defined counts the non-NaN values.
func (s Series) Defined() int {
	n := 0
	for _, v := range s {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// IndicatorOverlay holds the moving-average columns aligned with the price bars.
type IndicatorOverlay struct {
	SMA30  Series `json:"sma30"`
	SMA100 Series `json:"sma100"`
}

// Direction of the latest close-to-close move.
type Direction string

const (
	DirectionUp   Direction = "↑"
	DirectionDown Direction = "↓"
	DirectionFlat Direction = "⸺"
)

// KeyStats backs the stat cards at the top of the dashboard.
type KeyStats struct {
	LatestOpen    float64   `json:"latest_open"`
	LatestClose   float64   `json:"latest_close"`
	PeriodHigh    float64   `json:"period_high"`
	PeriodLow     float64   `json:"period_low"`
	Delta         float64   `json:"delta"`
	Arrow         Direction `json:"arrow"`
	ChangeText    string    `json:"change_text"`
	RangePosition float64   `json:"range_position"` // latest close within [low, high], 0.0~1.0
}
