package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"StockCast/internal/model"
)

// Direction compares the last two closes. One close, or two equal closes,
// is flat.
func Direction(closes []float64) (model.Direction, decimal.Decimal) {
	if len(closes) < 2 {
		return model.DirectionFlat, decimal.Zero
	}
	last := decimal.NewFromFloat(closes[len(closes)-1])
	prev := decimal.NewFromFloat(closes[len(closes)-2])
	delta := last.Sub(prev)
	switch delta.Sign() {
	case 1:
		return model.DirectionUp, delta
	case -1:
		return model.DirectionDown, delta
	default:
		return model.DirectionFlat, delta
	}
}

// ChangeText renders e.g. "↑ 5.00 USD".
func ChangeText(arrow model.Direction, delta decimal.Decimal) string {
	return fmt.Sprintf("%s %s USD", arrow, delta.Abs().StringFixed(2))
}

// Summarize computes the stat cards for a price series.
func Summarize(bars []model.OHLCV) (model.KeyStats, error) {
	if len(bars) == 0 {
		return model.KeyStats{}, errors.New("no bars provided")
	}
	high, low, err := PeriodRange(bars)
	if err != nil {
		return model.KeyStats{}, err
	}
	arrow, delta := Direction(extractCloses(bars))
	last := bars[len(bars)-1]
	d, _ := delta.Float64()
	pos, err := Position(last.Close, high, low)
	if err != nil {
		return model.KeyStats{}, err
	}
	return model.KeyStats{
		LatestOpen:    last.Open,
		LatestClose:   last.Close,
		PeriodHigh:    high,
		PeriodLow:     low,
		Delta:         d,
		Arrow:         arrow,
		ChangeText:    ChangeText(arrow, delta),
		RangePosition: pos,
	}, nil
}
