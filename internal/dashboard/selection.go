package dashboard

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockCast/internal/model"
)

const dateLayout = "2006-01-02"

// minPickerDate is the earliest date the date inputs accept.
var minPickerDate = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

// ErrInvalidSelection marks a query value outside the widget constraints.
var ErrInvalidSelection = errors.New("invalid selection")

// Options are the widget constraints and defaults.
type Options struct {
	Title        string
	Tickers      []string
	DefaultStart time.Time
	MaxYears     int
	Now          func() time.Time
}

func (o Options) today() time.Time {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	y, m, d := now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (o Options) hasTicker(t string) bool {
	for _, s := range o.Tickers {
		if s == t {
			return true
		}
	}
	return false
}

// DefaultSelection is what the page shows before any interaction.
func (o Options) DefaultSelection() model.Selection {
	ticker := ""
	if len(o.Tickers) > 0 {
		ticker = o.Tickers[0]
	}
	return model.Selection{
		Ticker:    ticker,
		Start:     o.DefaultStart,
		End:       o.today(),
		Horizon:   model.Horizon{Years: 1},
		ChartType: model.ChartLine,
	}
}

// ParseSelection reads the widget state from query values. Missing values
// take their defaults; values a widget could not produce are rejected.
func ParseSelection(q url.Values, o Options) (model.Selection, error) {
	sel := o.DefaultSelection()

	if v := strings.ToUpper(strings.TrimSpace(q.Get("ticker"))); v != "" {
		if !o.hasTicker(v) {
			return sel, fmt.Errorf("%w: ticker %q is not offered", ErrInvalidSelection, v)
		}
		sel.Ticker = v
	}

	var err error
	if sel.Start, err = parseDate(q, "start", sel.Start, o); err != nil {
		return sel, err
	}
	if sel.End, err = parseDate(q, "end", sel.End, o); err != nil {
		return sel, err
	}

	if sel.Horizon.Years, err = parseInt(q, "years", sel.Horizon.Years, 0, o.MaxYears); err != nil {
		return sel, err
	}
	if sel.Horizon.Months, err = parseInt(q, "months", 0, 0, 11); err != nil {
		return sel, err
	}
	if sel.Horizon.Days, err = parseInt(q, "days", 0, 0, 30); err != nil {
		return sel, err
	}

	switch v := q.Get("chart"); v {
	case "", string(model.ChartLine):
		sel.ChartType = model.ChartLine
	case string(model.ChartBar):
		sel.ChartType = model.ChartBar
	default:
		return sel, fmt.Errorf("%w: chart type %q", ErrInvalidSelection, v)
	}

	switch v := strings.ToLower(q.Get("indicators")); v {
	case "", "0", "false", "off":
	case "1", "true", "on":
		sel.ShowIndicators = true
	default:
		return sel, fmt.Errorf("%w: indicators %q", ErrInvalidSelection, v)
	}

	if v := strings.ToUpper(strings.TrimSpace(q.Get("compare"))); v != "" {
		if !o.hasTicker(v) {
			return sel, fmt.Errorf("%w: compare ticker %q is not offered", ErrInvalidSelection, v)
		}
		sel.CompareTicker = v
	}
	return sel, nil
}

func parseDate(q url.Values, key string, def time.Time, o Options) (time.Time, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return def, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalidSelection, key)
	}
	// The date picker offers the minimum start date through today.
	if t.Before(minPickerDate) || t.After(o.today()) {
		return def, fmt.Errorf("%w: %s %s is outside %s..%s", ErrInvalidSelection, key, v,
			minPickerDate.Format(dateLayout), o.today().Format(dateLayout))
	}
	return t, nil
}

func parseInt(q url.Values, key string, def, lo, hi int) (int, error) {
	v := q.Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return def, fmt.Errorf("%w: %s must be an integer in %d..%d", ErrInvalidSelection, key, lo, hi)
	}
	return n, nil
}

// Encode turns a selection back into query values.
func Encode(sel model.Selection) url.Values {
	q := url.Values{}
	q.Set("ticker", sel.Ticker)
	q.Set("start", sel.Start.Format(dateLayout))
	q.Set("end", sel.End.Format(dateLayout))
	q.Set("years", strconv.Itoa(sel.Horizon.Years))
	q.Set("months", strconv.Itoa(sel.Horizon.Months))
	q.Set("days", strconv.Itoa(sel.Horizon.Days))
	q.Set("chart", string(sel.ChartType))
	if sel.ShowIndicators {
		q.Set("indicators", "on")
	}
	if sel.CompareTicker != "" {
		q.Set("compare", sel.CompareTicker)
	}
	return q
}
