package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"StockCast/internal/model"
)

func testSeries(n int) *model.PriceSeries {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &model.PriceSeries{Symbol: "GOOG"}
	for i := 0; i < n; i++ {
		s.Bars = append(s.Bars, model.OHLCV{Time: day.AddDate(0, 0, i), Close: float64(100 + i)})
	}
	return s
}

func TestFormatForecastSummary(t *testing.T) {
	series := testSeries(120)
	stats := model.KeyStats{LatestClose: 219, PeriodLow: 100, PeriodHigh: 219, ChangeText: "↑ 1.00 USD", RangePosition: 1}
	fc := &model.ForecastFrame{
		Symbol: "GOOG", Model: "additive", Interval: 0.95, HistoryLen: 120, HorizonDays: 365,
		Points: []model.ForecastPoint{{DS: time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), YHat: 250.5, Lower: 200.25, Upper: 300.75}},
	}

	msg := FormatForecastSummary(series, stats, fc)
	assert.Contains(t, msg, "<b>GOOG</b>")
	assert.Contains(t, msg, "Close: 219.00 (↑ 1.00 USD)")
	assert.Contains(t, msg, "SMA30: 204.50")
	assert.Contains(t, msg, "SMA100: 169.50")
	assert.Contains(t, msg, "2025-04-30 (+365d, additive)")
	assert.Contains(t, msg, "yhat: 250.50")
	assert.Contains(t, msg, "95% interval: 200.25 – 300.75")
}

func TestFormatForecastSummary_ShortHistory(t *testing.T) {
	msg := FormatForecastSummary(testSeries(10), model.KeyStats{ChangeText: "⸺ 0.00 USD"}, nil)
	assert.NotContains(t, msg, "SMA")
	assert.NotContains(t, msg, "Forecast")
}

func TestFormatDigestAndHelp(t *testing.T) {
	d := FormatDigest([]string{"a\n", "b\n"}, []string{"GME"})
	assert.Contains(t, d, "a\n\nb")
	assert.Contains(t, d, "Failed: GME")

	h := FormatHelp([]string{"GOOG", "AAPL"})
	assert.Contains(t, h, "/forecast TICKER")
	assert.Contains(t, h, "GOOG, AAPL")
}

type fakeBotAPI struct {
	mu       sync.Mutex
	failures int
	sent     []map[string]string
}

func (f *fakeBotAPI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		if f.failures > 0 {
			f.failures--
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		var payload map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		f.sent = append(f.sent, payload)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
}

func newTestNotifier(t *testing.T, api *fakeBotAPI) *TelegramNotifier {
	srv := httptest.NewServer(api.handler(t))
	t.Cleanup(srv.Close)
	tn := NewTelegramNotifier("TOKEN", "42", "")
	tn.APIBase = srv.URL
	tn.retryUnit = time.Millisecond
	return tn
}

func TestTelegramNotifier_Send(t *testing.T) {
	api := &fakeBotAPI{}
	tn := newTestNotifier(t, api)

	require.NoError(t, tn.Send(context.Background(), "<b>hi</b>"))
	require.Len(t, api.sent, 1)
	assert.Equal(t, "42", api.sent[0]["chat_id"])
	assert.Equal(t, "<b>hi</b>", api.sent[0]["text"])
	assert.Equal(t, "HTML", api.sent[0]["parse_mode"])
}

func TestTelegramNotifier_SendWithRetry(t *testing.T) {
	api := &fakeBotAPI{failures: 2}
	tn := newTestNotifier(t, api)

	require.NoError(t, tn.SendWithRetry(context.Background(), "msg", 3))
	assert.Len(t, api.sent, 1)
}

func TestTelegramNotifier_RetriesExhausted(t *testing.T) {
	api := &fakeBotAPI{failures: 10}
	tn := newTestNotifier(t, api)

	err := tn.SendWithRetry(context.Background(), "msg", 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all 3 retries exhausted")
	assert.Equal(t, 7, api.failures)
}
