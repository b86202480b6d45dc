package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegimeWatch/internal/model"
)

func TestStooqFetcher_ParsesAndSorts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "spy.us", r.URL.Query().Get("s"))
		assert.Equal(t, "d", r.URL.Query().Get("i"))
		fmt.Fprint(w, "Date,Open,High,Low,Close,Volume\n"+
			"2025-01-03,1,2,0.5,1.5,100\n"+
			"2025-01-02,1,2,0.5,1.2,100\n"+
			"garbage,1,2,0.5,1.1,100\n")
	}))
	defer srv.Close()

	f := NewStooqFetcher(srv.URL+"/q/d/l/", "")
	bars, err := f.FetchDailyBars(context.Background(), "spy.us")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 1.5, bars[1].Close)
}

func TestStooqFetcher_NoData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "No data")
	}))
	defer srv.Close()

	_, err := NewStooqFetcher(srv.URL, "").FetchDailyBars(context.Background(), "zzz.us")
	assert.Error(t, err)
}

func TestStooqFetcher_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewStooqFetcher(srv.URL, "").FetchDailyBars(context.Background(), "spy.us")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestYahooFetcher_ParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/^VIX", r.URL.Path)
		fmt.Fprint(w, `{"chart":{"result":[{"timestamp":[1736173800,1736260200,1736346600],
			"indicators":{"quote":[{"open":[17,18,null],"high":[18,19,null],"low":[16,17,null],
			"close":[17.5,18.5,null],"volume":[0,0,null]}]}}],"error":null}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchDailyBars(context.Background(), "^VIX")
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), bars[0].Time)
	assert.Equal(t, 18.5, bars[1].Close)
}

func TestYahooFetcher_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	_, err := f.FetchDailyBars(context.Background(), "^NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestCollector_SkipsFailedSymbols(t *testing.T) {
	ok := &MockFetcher{Bars: map[string][]model.OHLCV{"spy.us": {{Close: 1}}}}
	bad := &MockFetcher{Err: errors.New("boom")}

	data, err := NewCollector(
		Source{Symbol: "SPY", Ticker: "spy.us", Fetcher: ok},
		Source{Symbol: "VIX", Ticker: "^VIX", Fetcher: bad},
	).Collect(context.Background())
	require.NoError(t, err)
	assert.Contains(t, data, "SPY")
	assert.NotContains(t, data, "VIX")
}

func TestCollector_AllFailed(t *testing.T) {
	bad := &MockFetcher{Err: errors.New("boom")}
	_, err := NewCollector(Source{Symbol: "SPY", Ticker: "spy.us", Fetcher: bad}).Collect(context.Background())
	assert.Error(t, err)
}

func TestMockFetcher_GeneratesChronologicalBars(t *testing.T) {
	bars, err := (&MockFetcher{Price: 100, Days: 5}).FetchDailyBars(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, bars, 5)
	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Time.After(bars[i-1].Time))
	}
}
