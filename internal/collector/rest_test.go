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

func newRESTTestServer(t *testing.T, status int, body string) (*RESTFetcher, *http.Request) {
	t.Helper()
	var got http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewRESTFetcher(srv.URL, "secret", "", 5*time.Second), &got
}

func TestRESTFetcher_FiltersRangeAndSorts(t *testing.T) {
	// Jan 4, Jan 1, Jan 2, Jan 5, Jan 3 of 2024, deliberately out of order.
	body := `[
		{"timestamp":1704326400,"open":12,"high":13,"low":11,"close":12.5,"volume":300},
		{"timestamp":1704067200,"open":1,"high":1,"low":1,"close":1,"volume":1},
		{"timestamp":1704153600,"open":10,"high":11,"low":9,"close":10.5,"volume":100},
		{"timestamp":1704412800,"open":2,"high":2,"low":2,"close":2,"volume":2},
		{"timestamp":1704240000,"open":11,"high":12,"low":10,"close":11.5,"volume":200}
	]`
	f, got := newRESTTestServer(t, http.StatusOK, body)

	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	bars, err := f.FetchDaily(context.Background(), "GOOG", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/bars/daily", got.URL.Path)
	assert.Equal(t, "GOOG", got.URL.Query().Get("symbol"))
	assert.Equal(t, "2024-01-02", got.URL.Query().Get("start"))
	assert.Equal(t, "2024-01-05", got.URL.Query().Get("end"))
	assert.Equal(t, "Bearer secret", got.Header.Get("Authorization"))

	require.Len(t, bars, 3, "bars before start and on the exclusive end are dropped")
	assert.Equal(t, start, bars[0].Time)
	assert.Equal(t, start.AddDate(0, 0, 1), bars[1].Time)
	assert.Equal(t, start.AddDate(0, 0, 2), bars[2].Time)
	assert.InDelta(t, 10.5, bars[0].Close, 1e-9)
	assert.InDelta(t, 11.5, bars[1].Close, 1e-9)
	assert.InDelta(t, 300.0, bars[2].Volume, 1e-9)
}

func TestRESTFetcher_NoAuthHeaderWithoutKey(t *testing.T) {
	f, got := newRESTTestServer(t, http.StatusOK, `[]`)
	f.APIKey = ""

	bars, err := f.FetchDaily(context.Background(), "AAPL", rangeStart, rangeEnd)
	require.NoError(t, err)
	assert.Empty(t, bars)
	assert.Empty(t, got.Header.Get("Authorization"))
}

func TestRESTFetcher_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		f, _ := newRESTTestServer(t, http.StatusServiceUnavailable, `maintenance`)
		_, err := f.FetchDaily(context.Background(), "GOOG", rangeStart, rangeEnd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 503")
		assert.Contains(t, err.Error(), "maintenance")
	})

	t.Run("decode", func(t *testing.T) {
		f, _ := newRESTTestServer(t, http.StatusOK, `{"not":"a list"}`)
		_, err := f.FetchDaily(context.Background(), "GOOG", rangeStart, rangeEnd)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode bars")
	})
}
