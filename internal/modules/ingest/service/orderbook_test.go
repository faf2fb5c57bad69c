package service

import (
	"testing"
	"time"

	"marketdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lvl(price, qty float64) models.BookLevel { return models.BookLevel{Price: price, Qty: qty} }

func TestBuildSnapshot(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	upd := models.DepthUpdate{
		Bids:        []models.BookLevel{lvl(100.4, 2), lvl(100.3, 1), lvl(100.2, 5)},
		Asks:        []models.BookLevel{lvl(100.6, 1)},
		EventTimeMS: 1690000000000,
	}

	ob, ok := buildSnapshot("btcusdt", upd, 2, now)

	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", ob.Symbol)
	assert.Len(t, ob.Bids, 2) // trimmed to the configured depth
	assert.Equal(t, time.UnixMilli(1690000000000).UTC(), ob.TS)
	assert.InDelta(t, 0.5, ob.Imbalance, 1e-9) // (3-1)/(3+1)
	assert.InDelta(t, 0.2, ob.Spread, 1e-9)
}

func TestBuildSnapshotFallsBackToWallClock(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	upd := models.DepthUpdate{Bids: []models.BookLevel{lvl(10, 1)}}

	ob, ok := buildSnapshot("ETHUSDT", upd, 20, now)

	require.True(t, ok)
	assert.Equal(t, now, ob.TS)
	assert.Equal(t, 1.0, ob.Imbalance) // bid-only book
	assert.Equal(t, 0.0, ob.Spread)
}

func TestBuildSnapshotDropsEmptyBook(t *testing.T) {
	_, ok := buildSnapshot("BTCUSDT", models.DepthUpdate{}, 20, time.Now())
	assert.False(t, ok)
}

func TestComputeImbalance(t *testing.T) {
	assert.Equal(t, 0.0, computeImbalance(nil, nil))
	assert.Equal(t, -1.0, computeImbalance(nil, []models.BookLevel{lvl(10, 4)}))
	assert.InDelta(t, 1.0/3, computeImbalance(
		[]models.BookLevel{lvl(10, 2)},
		[]models.BookLevel{lvl(11, 1)},
	), 1e-9)
}

func TestComputeSpreadNeverNegative(t *testing.T) {
	// crossed feed frame: clamp instead of reporting a negative spread
	got := computeSpread([]models.BookLevel{lvl(100.7, 1)}, []models.BookLevel{lvl(100.6, 1)})
	assert.Equal(t, 0.0, got)
}
