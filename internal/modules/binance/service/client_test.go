package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"marketdesk/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{BaseURL: srv.URL})
	var sleeps []time.Duration
	c.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return c, &sleeps
}

func TestGetWithRetryExhaustsAndReturnsEmpty(t *testing.T) {
	var requests atomic.Int32
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	got := c.FetchKlines(context.Background(), "BTCUSDT", "1m", 10, 0, 0)

	assert.Empty(t, got)
	assert.EqualValues(t, 5, requests.Load())
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}, *sleeps)
}

func TestNextBackoffCaps(t *testing.T) {
	var got []time.Duration
	d := backoffMin
	for i := 0; i < 7; i++ {
		got = append(got, d)
		d = nextBackoff(d)
	}
	assert.Equal(t, []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		30 * time.Second,
		30 * time.Second,
	}, got)
}

func TestRateLimitedThenSuccess(t *testing.T) {
	var requests atomic.Int32
	c, sleeps := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[[1690000000000,"100","110","90","105","12.5",1690000059999]]`))
	}))

	got := c.FetchKlines(context.Background(), "BTCUSDT", "1m", 10, 0, 0)

	require.Len(t, got, 1)
	assert.Equal(t, []time.Duration{1 * time.Second}, *sleeps)
	assert.Equal(t, int64(1690000000000), got[0].OpenTime)
	assert.Equal(t, 105.0, got[0].Close)
}

func TestFetchKlinesSkipsMalformedRecords(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			[1690000000000,"1","2","0.5","1.5","10",1690000059999],
			["not-a-time","1","2","0.5","1.5","10",1690000119999],
			[1690000120000,"1"],
			[1690000180000,"3","4","2.5","3.5","20",1690000239999]
		]`))
	}))

	got := c.FetchKlines(context.Background(), "ethusdt", "1m", 10, 0, 0)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1690000000000), got[0].OpenTime)
	assert.Equal(t, 3.5, got[1].Close)
}

func TestFetchKlinesPassesWindowAndCapsLimit(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "1000", q.Get("limit"))
		assert.Equal(t, "1000", q.Get("startTime"))
		assert.Equal(t, "2000", q.Get("endTime"))
		_, _ = w.Write([]byte(`[]`))
	}))

	c.FetchKlines(context.Background(), "btcusdt", "1h", 5000, 1000, 2000)
}

func TestFetchOrderBookParsesAndCapsLevels(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"lastUpdateId": 42,
			"bids": [["100.5","1.0"],["100.4","2.0"],["100.3","3.0"]],
			"asks": [["100.6","1.5"],["bad"]]
		}`))
	}))

	upd, ok := c.FetchOrderBook(context.Background(), "BTCUSDT", 2)

	require.True(t, ok)
	assert.Equal(t, int64(42), upd.LastUpdateID)
	require.Len(t, upd.Bids, 2)
	assert.Equal(t, 100.5, upd.Bids[0].Price)
	assert.Equal(t, 2.0, upd.Bids[1].Qty)
	require.Len(t, upd.Asks, 1) // malformed level dropped
}

func TestFetchPrices(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `["BTCUSDT","ETHUSDT"]`, r.URL.Query().Get("symbols"))
		_, _ = w.Write([]byte(`[
			{"symbol":"BTCUSDT","price":"65000.12"},
			{"symbol":"ETHUSDT","price":"3500.5"}
		]`))
	}))

	got := c.FetchPrices(context.Background(), []string{"btcusdt", "ETHUSDT"})

	assert.Equal(t, map[string]float64{"BTCUSDT": 65000.12, "ETHUSDT": 3500.5}, got)
}

func TestSymbolsParam(t *testing.T) {
	assert.Equal(t, `["BTCUSDT","ETHUSDT"]`, symbolsParam([]string{"btcusdt", "ETHUSDT"}))
	assert.Equal(t, `["BTCUSDT"]`, symbolsParam([]string{"BTCUSDT"}))
}

func TestNormalizeKline(t *testing.T) {
	k, ok := normalizeKline([]any{
		float64(1690000000000), "100", "110", "90", "105", "12.5", float64(1690000059999),
	})
	require.True(t, ok)
	assert.Equal(t, 110.0, k.High)
	assert.Equal(t, int64(1690000059999), k.CloseTime)

	_, ok = normalizeKline([]any{float64(1690000000000), "100"})
	assert.False(t, ok)

	_, ok = normalizeKline([]any{true, "100", "110", "90", "105", "12.5", float64(0)})
	assert.False(t, ok)
}
