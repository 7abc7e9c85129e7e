package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAlpacaTestServer(t *testing.T, status int, body string) (*AlpacaFetcher, *http.Request) {
	t.Helper()
	var got http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewAlpacaFetcher("key-id", "key-secret", srv.URL), &got
}

func TestAlpacaFetcher_ParsesBarsInExchangeTime(t *testing.T) {
	// Daily bars are stamped at New York midnight, so 05:00Z in winter.
	body := `{"bars":{"GOOG":[
		{"t":"2024-01-03T05:00:00Z","o":11,"h":12,"l":10,"c":11.5,"v":200,"n":20,"vw":11.2},
		{"t":"2024-01-02T05:00:00Z","o":10,"h":11,"l":9,"c":10.5,"v":100,"n":10,"vw":10.1}
	]},"next_page_token":null}`
	f, got := newAlpacaTestServer(t, http.StatusOK, body)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC)
	bars, err := f.FetchDaily(context.Background(), "GOOG", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/v2/stocks/bars", got.URL.Path)
	assert.Equal(t, "GOOG", got.URL.Query().Get("symbols"))
	assert.Equal(t, "1Day", got.URL.Query().Get("timeframe"))
	assert.Equal(t, "split", got.URL.Query().Get("adjustment"))
	assert.Equal(t, "key-id", got.Header.Get("APCA-API-KEY-ID"))
	assert.Equal(t, "key-secret", got.Header.Get("APCA-API-SECRET-KEY"))

	require.Len(t, bars, 2)
	assert.Equal(t, start, bars[0].Time)
	assert.Equal(t, start.AddDate(0, 0, 1), bars[1].Time)
	assert.InDelta(t, 10.5, bars[0].Close, 1e-9)
	assert.InDelta(t, 200.0, bars[1].Volume, 1e-9)
	assert.Equal(t, "alpaca", f.Name())
}

func TestAlpacaFetcher_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		f, _ := newAlpacaTestServer(t, http.StatusForbidden, `{"code":40310000,"message":"forbidden"}`)
		_, err := f.FetchDaily(context.Background(), "GOOG", rangeStart, rangeEnd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "alpaca GetBars")
	})

	t.Run("canceled", func(t *testing.T) {
		f, _ := newAlpacaTestServer(t, http.StatusOK, `{"bars":{}}`)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := f.FetchDaily(ctx, "GOOG", rangeStart, rangeEnd)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown symbol", func(t *testing.T) {
		f, _ := newAlpacaTestServer(t, http.StatusOK, `{"bars":{},"next_page_token":null}`)
		bars, err := f.FetchDaily(context.Background(), "ZZZZ", rangeStart, rangeEnd)
		require.NoError(t, err)
		assert.Empty(t, bars)
	})
}
