package dashboard

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"StockCast/internal/logger"
	"StockCast/internal/model"
)

//go:embed templates/page.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"price":  func(v float64) string { return fmt.Sprintf("%.2f", v) },
	"volume": func(v float64) string { return fmt.Sprintf("%.0f", v) },
	"pct":    func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
	"date":   func(t time.Time) string { return t.Format(dateLayout) },
}).ParseFS(templateFS, "templates/page.html"))

type figureBlock struct {
	ID    string
	Title string
	JSON  template.JS
}

type pageData struct {
	*View
	Years   []int
	Months  []int
	Days    []int
	MinDate string
	MaxDate string
	Start   string
	End     string
	Figures []figureBlock
	ViewURL template.URL
	Trend   string
}

func intRange(lo, hi int) []int {
	out := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		out = append(out, i)
	}
	return out
}

func figureJSON(fig *Figure) (template.JS, error) {
	b, err := json.Marshal(fig)
	if err != nil {
		return "", err
	}
	// encoding/json escapes <, > and & so the payload is safe inside <script>.
	return template.JS(b), nil
}

func newPageData(v *View, o Options) (*pageData, error) {
	d := &pageData{
		View:    v,
		Years:   intRange(0, o.MaxYears),
		Months:  intRange(0, 11),
		Days:    intRange(0, 30),
		MinDate: minPickerDate.Format(dateLayout),
		MaxDate: o.today().Format(dateLayout),
		Start:   v.Selection.Start.Format(dateLayout),
		End:     v.Selection.End.Format(dateLayout),
		ViewURL: template.URL("/api/v1/view?" + selectionQuery(v.Selection)),
	}
	if v.Stats != nil {
		switch v.Stats.Arrow {
		case model.DirectionUp:
			d.Trend = "up"
		case model.DirectionDown:
			d.Trend = "down"
		default:
			d.Trend = "flat"
		}
	}

	blocks := []struct {
		id, title string
		fig       *Figure
	}{
		{"price-chart", "Time series data", v.PriceChart},
		{"indicator-chart", "Technical indicators", v.IndicatorChart},
		{"compare-chart", "Comparison", v.CompareChart},
		{"forecast-chart", "Forecast data", v.ForecastChart},
	}
	for _, b := range blocks {
		if b.fig == nil {
			continue
		}
		js, err := figureJSON(b.fig)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", b.id, err)
		}
		d.Figures = append(d.Figures, figureBlock{ID: b.id, Title: b.title, JSON: js})
	}
	return d, nil
}

// writePage renders the HTML page into a buffer first so a template error
// still produces a clean 500.
func writePage(w http.ResponseWriter, status int, v *View, o Options) {
	data, err := newPageData(v, o)
	if err == nil {
		var buf bytes.Buffer
		if err = pageTemplate.Execute(&buf, data); err == nil {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(status)
			_, _ = buf.WriteTo(w)
			return
		}
	}
	logger.Error("render page", logger.ErrorField(err))
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
