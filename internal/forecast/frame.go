package forecast

import (
	"math"
	"time"

	"StockCast/internal/model"
)

// TrainingFrame is the two-column (ds, y) projection a model is fitted on.
type TrainingFrame struct {
	Symbol string
	DS     []time.Time
	Y      []float64
}

// NewTrainingFrame projects the series onto (date, close). Rows with a
// non-finite close are dropped.
func NewTrainingFrame(series *model.PriceSeries) TrainingFrame {
	tf := TrainingFrame{
		Symbol: series.Symbol,
		DS:     make([]time.Time, 0, len(series.Bars)),
		Y:      make([]float64, 0, len(series.Bars)),
	}
	for _, b := range series.Bars {
		if math.IsNaN(b.Close) || math.IsInf(b.Close, 0) {
			continue
		}
		tf.DS = append(tf.DS, b.Time)
		tf.Y = append(tf.Y, b.Close)
	}
	return tf
}

// Len returns the number of observations.
func (tf TrainingFrame) Len() int { return len(tf.DS) }

// FutureIndex returns the history timestamps followed by horizonDays
// consecutive calendar days after the last one.
func FutureIndex(history []time.Time, horizonDays int) []time.Time {
	if horizonDays < 0 {
		horizonDays = 0
	}
	out := make([]time.Time, len(history), len(history)+horizonDays)
	copy(out, history)
	if len(history) == 0 {
		return out
	}
	last := history[len(history)-1]
	for i := 1; i <= horizonDays; i++ {
		out = append(out, last.AddDate(0, 0, i))
	}
	return out
}
