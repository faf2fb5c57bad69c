package service

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"marketdesk/internal/models"
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

type fakeVenue struct {
	stats []models.Ticker24h
}

func (f *fakeVenue) Fetch24hStats(ctx context.Context, symbols []string) []models.Ticker24h {
	return f.stats
}

type fakeUniverse struct {
	symbols   []string
	updatedAt time.Time
}

func (f *fakeUniverse) Get(ctx context.Context) []string { return f.symbols }
func (f *fakeUniverse) UpdatedAt() time.Time             { return f.updatedAt }

func tickerRows(n int) []models.Ticker24h {
	// pct runs from -n/2 to n/2, volume descends with the index
	out := make([]models.Ticker24h, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Ticker24h{
			Symbol:             fmt.Sprintf("SYM%03dUSDT", i),
			LastPrice:          1.0,
			PriceChangePercent: float64(i - n/2),
			QuoteVolume:        float64(1000 - i),
		})
	}
	return out
}

func TestGetBuildsLeadersAndLaggards(t *testing.T) {
	venue := &fakeVenue{stats: tickerRows(30)}
	uniAt := time.Date(2026, 8, 1, 11, 0, 0, 0, time.UTC)
	uni := &fakeUniverse{symbols: []string{"SYM000USDT"}, updatedAt: uniAt}
	c := NewCache(venue, uni, Config{TTL: 20 * time.Second, TopN: 200})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	got := c.Get(context.Background())

	assert.False(t, got.Stale)
	assert.Equal(t, base, got.UpdatedAt)
	assert.Equal(t, 1, got.UniverseSize)
	assert.Equal(t, uniAt, got.Filters.UniverseCachedAt)

	require.Len(t, got.Gainers, 10)
	require.Len(t, got.Losers, 10)
	assert.Equal(t, "SYM029USDT", got.Gainers[0].Symbol)
	assert.Equal(t, 14.0, got.Gainers[0].PriceChangePercent)
	assert.Equal(t, "SYM000USDT", got.Losers[0].Symbol)
	assert.Equal(t, -15.0, got.Losers[0].PriceChangePercent)
	// losers ordered most negative first
	assert.Greater(t, got.Losers[1].PriceChangePercent, got.Losers[0].PriceChangePercent)
}

func TestGetAppliesPriceFloorAndLiquidityCut(t *testing.T) {
	rows := []models.Ticker24h{
		{Symbol: "DUSTUSDT", LastPrice: 0.00001, PriceChangePercent: 99, QuoteVolume: 5000},
		{Symbol: "BIGUSDT", LastPrice: 10, PriceChangePercent: 5, QuoteVolume: 4000},
		{Symbol: "MIDUSDT", LastPrice: 10, PriceChangePercent: 8, QuoteVolume: 3000},
		{Symbol: "THINUSDT", LastPrice: 10, PriceChangePercent: 50, QuoteVolume: 1},
	}
	venue := &fakeVenue{stats: rows}
	uni := &fakeUniverse{symbols: []string{"BIGUSDT"}}
	c := NewCache(venue, uni, Config{TTL: 20 * time.Second, TopN: 2, PriceFloor: 0.0001})

	got := c.Get(context.Background())

	// the dust row is filtered, the thin row falls outside the top-2 by volume
	symbols := make([]string, 0, len(got.Gainers))
	for _, m := range got.Gainers {
		symbols = append(symbols, m.Symbol)
	}
	assert.Equal(t, []string{"MIDUSDT", "BIGUSDT"}, symbols)
}

func TestGetServesStaleOnFailure(t *testing.T) {
	venue := &fakeVenue{stats: tickerRows(30)}
	uni := &fakeUniverse{symbols: []string{"SYM000USDT"}}
	c := NewCache(venue, uni, Config{TTL: 20 * time.Second})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	now := base
	c.now = func() time.Time { return now }

	first := c.Get(context.Background())
	require.False(t, first.Stale)

	venue.stats = nil // upstream goes dark
	now = base.Add(time.Minute)
	got := c.Get(context.Background())

	assert.True(t, got.Stale)
	assert.Equal(t, base, got.UpdatedAt) // timestamp keeps its last-success value
	assert.Equal(t, first.Gainers, got.Gainers)

	// recovery clears the flag
	venue.stats = tickerRows(30)
	got = c.Get(context.Background())
	assert.False(t, got.Stale)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestGetFirstRunFailureYieldsEmptyStalePayload(t *testing.T) {
	c := NewCache(&fakeVenue{}, &fakeUniverse{}, Config{TTL: 20 * time.Second})

	got := c.Get(context.Background())

	assert.True(t, got.Stale)
	assert.Empty(t, got.Gainers)
	assert.Empty(t, got.Losers)
	assert.True(t, got.UpdatedAt.IsZero())
}
