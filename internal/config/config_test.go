package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBackfillDefaults(t *testing.T) {
	cfg, err := LoadBackfill()

	require.NoError(t, err)
	assert.Equal(t, []string{"BTCUSDT", "ETHUSDT"}, cfg.Symbols)
	assert.Equal(t, []string{"1m", "1h"}, cfg.Timeframes)
	assert.Equal(t, 1000, cfg.Limit)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.True(t, cfg.Start.IsZero())
	assert.True(t, cfg.End.IsZero())
}

func TestLoadBackfillFromEnv(t *testing.T) {
	t.Setenv("BACKFILL_SYMBOLS", "solusdt, adausdt")
	t.Setenv("BACKFILL_START", "2026-08-01T00:00:00Z")
	t.Setenv("BACKFILL_END", "2026-08-02T00:00:00Z")
	t.Setenv("BACKFILL_LIMIT", "500")

	cfg, err := LoadBackfill()

	require.NoError(t, err)
	assert.Equal(t, []string{"SOLUSDT", "ADAUSDT"}, cfg.Symbols)
	assert.Equal(t, 500, cfg.Limit)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), cfg.Start)
}

func TestLoadBackfillRejectsInvertedWindow(t *testing.T) {
	t.Setenv("BACKFILL_START", "2026-08-02T00:00:00Z")
	t.Setenv("BACKFILL_END", "2026-08-01T00:00:00Z")

	_, err := LoadBackfill()
	assert.Error(t, err)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a ,, b "))
	assert.Nil(t, splitList(""))
	assert.Equal(t, []string{"A", "B"}, upperAll(splitList("a,b")))
}
