package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }

func TestTradable(t *testing.T) {
	c := NewClient(Config{})

	cases := []struct {
		name string
		sym  exchangeInfoSymbol
		want bool
	}{
		{"spot usdt trading", exchangeInfoSymbol{Symbol: "BTCUSDT", Status: "TRADING", QuoteAsset: "USDT", Permissions: []string{"SPOT"}}, true},
		{"halted", exchangeInfoSymbol{Symbol: "BTCUSDT", Status: "BREAK", QuoteAsset: "USDT", Permissions: []string{"SPOT"}}, false},
		{"wrong quote", exchangeInfoSymbol{Symbol: "BTCBUSD", Status: "TRADING", QuoteAsset: "BUSD", Permissions: []string{"SPOT"}}, false},
		{"margin only", exchangeInfoSymbol{Symbol: "BTCUSDT", Status: "TRADING", QuoteAsset: "USDT", Permissions: []string{"MARGIN"}}, false},
		{"no permissions field", exchangeInfoSymbol{Symbol: "BTCUSDT", Status: "TRADING", QuoteAsset: "USDT"}, true},
		{"spot disallowed", exchangeInfoSymbol{Symbol: "BTCUSDT", Status: "TRADING", QuoteAsset: "USDT", IsSpotTradingAllowed: boolPtr(false)}, false},
		{"leveraged up token", exchangeInfoSymbol{Symbol: "BTCUPUSDT", Status: "TRADING", QuoteAsset: "USDT", Permissions: []string{"SPOT"}}, false},
		{"leveraged bear token", exchangeInfoSymbol{Symbol: "XRPBEARUSDT", Status: "TRADING", QuoteAsset: "USDT", Permissions: []string{"SPOT"}}, false},
		{"empty symbol", exchangeInfoSymbol{Status: "TRADING", QuoteAsset: "USDT"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.tradable(tc.sym))
		})
	}
}

func TestFetchUniverseFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbols":[
			{"symbol":"BTCUSDT","status":"TRADING","quoteAsset":"USDT","permissions":["SPOT"]},
			{"symbol":"ETHBTC","status":"TRADING","quoteAsset":"BTC","permissions":["SPOT"]},
			{"symbol":"ADADOWNUSDT","status":"TRADING","quoteAsset":"USDT","permissions":["SPOT"]},
			{"symbol":"ETHUSDT","status":"TRADING","quoteAsset":"USDT","permissions":["SPOT","MARGIN"]}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	got := c.FetchUniverse(context.Background())

	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, got)
}

func TestFetch24hStatsBatches(t *testing.T) {
	var batchSizes []int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// each batch answers with a single row so partials are visible
		var syms []string
		require.NoError(t, sonic.Unmarshal([]byte(r.URL.Query().Get("symbols")), &syms))
		batchSizes = append(batchSizes, len(syms))
		_, _ = fmt.Fprintf(w, `[{"symbol":"%s","lastPrice":"1","highPrice":"2","lowPrice":"0.5","priceChangePercent":"3.5","quoteVolume":"1000"}]`, syms[0])
	}))
	defer srv.Close()

	symbols := make([]string, 0, 150)
	for i := 0; i < 150; i++ {
		symbols = append(symbols, fmt.Sprintf("SYM%03dUSDT", i))
	}

	c := NewClient(Config{BaseURL: srv.URL})
	got := c.Fetch24hStats(context.Background(), symbols)

	assert.Equal(t, []int{100, 50}, batchSizes)
	require.Len(t, got, 2)
	assert.Equal(t, "SYM000USDT", got[0].Symbol)
	assert.Equal(t, 3.5, got[0].PriceChangePercent)
	assert.Equal(t, "SYM100USDT", got[1].Symbol)
}
