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

func newYahooTestServer(t *testing.T, body string, status int) (*YahooFetcher, *http.Request) {
	t.Helper()
	var got http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = *r
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	f := NewYahooFetcher("", 5*time.Second)
	f.BaseURL = srv.URL
	return f, &got
}

func TestYahooFetcher_ParsesAndSorts(t *testing.T) {
	body := `{"chart":{"result":[{
		"meta":{"currency":"USD","gmtoffset":-18000},
		"timestamp":[1709649000,1709562600,1709735400],
		"indicators":{"quote":[{
			"open":[101,99,null],
			"high":[103,101,null],
			"low":[100,98,null],
			"close":[102,100,null],
			"volume":[2000,1000,null]
		}]}
	}],"error":null}}`
	f, req := newYahooTestServer(t, body, http.StatusOK)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	bars, err := f.FetchDaily(context.Background(), "GOOG", start, end)
	require.NoError(t, err)

	require.Len(t, bars, 2, "null bar is skipped")
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), bars[1].Time)
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)
	assert.Equal(t, 2000.0, bars[1].Volume)

	assert.Equal(t, "/v8/finance/chart/GOOG", req.URL.Path)
	assert.Equal(t, "1d", req.URL.Query().Get("interval"))
	assert.Equal(t, "1709251200", req.URL.Query().Get("period1"))
	assert.Equal(t, "1709769600", req.URL.Query().Get("period2"))
}

func TestYahooFetcher_GMTOffsetKeepsTradingDate(t *testing.T) {
	// 02:00 UTC on the 5th is 21:00 on the 4th in New York.
	body := `{"chart":{"result":[{
		"meta":{"gmtoffset":-18000},
		"timestamp":[1709604000],
		"indicators":{"quote":[{"open":[1],"high":[1],"low":[1],"close":[1],"volume":[1]}]}
	}]}}`
	f, _ := newYahooTestServer(t, body, http.StatusOK)

	bars, err := f.FetchDaily(context.Background(), "AAPL", time.Time{}, time.Now())
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC), bars[0].Time)
}

func TestYahooFetcher_SymbolMap(t *testing.T) {
	f, req := newYahooTestServer(t, `{"chart":{"result":[]}}`, http.StatusOK)
	bars, err := f.FetchDaily(context.Background(), "SPX", time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, bars)
	assert.Equal(t, "/v8/finance/chart/^GSPC", req.URL.Path)
}

func TestYahooFetcher_APIError(t *testing.T) {
	body := `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`
	f, _ := newYahooTestServer(t, body, http.StatusNotFound)
	_, err := f.FetchDaily(context.Background(), "NOPE", time.Time{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delisted")
}

func TestYahooFetcher_BadStatus(t *testing.T) {
	f, _ := newYahooTestServer(t, "rate limited", http.StatusTooManyRequests)
	_, err := f.FetchDaily(context.Background(), "GOOG", time.Time{}, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
