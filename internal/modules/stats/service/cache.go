package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketdesk/internal/models"
	"marketdesk/pkg/logger"

	"github.com/pkg/errors"
)

const topMovers = 10

type venueSource interface {
	Fetch24hStats(ctx context.Context, symbols []string) []models.Ticker24h
}

type universeSource interface {
	Get(ctx context.Context) []string
	UpdatedAt() time.Time
}

type Config struct {
	TTL        time.Duration
	TopN       int     // liquidity cutoff by 24h quote volume
	PriceFloor float64 // drop instruments quoting below this
}

// Cache serves 24h leader/laggard statistics. Expired reads trigger one
// synchronous refresh; a failed refresh serves the previous payload with
// the stale flag set, or an empty payload when nothing was ever cached.
type Cache struct {
	venue venueSource
	uni   universeSource
	cfg   Config
	now   func() time.Time

	mu      sync.RWMutex
	snap    models.TopStats
	hasData bool
}

func NewCache(venue venueSource, uni universeSource, cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 20 * time.Second
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 200
	}
	return &Cache{
		venue: venue,
		uni:   uni,
		cfg:   cfg,
		now:   time.Now,
		snap:  models.TopStats{Stale: true},
	}
}

// Get returns the cached statistics, refreshing at most once per call.
func (c *Cache) Get(ctx context.Context) models.TopStats {
	c.mu.RLock()
	fresh := c.hasData && c.now().Sub(c.snap.UpdatedAt) <= c.cfg.TTL
	snap := c.snap
	c.mu.RUnlock()
	if fresh {
		return snap
	}

	next, err := c.refresh(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		logger.Warn("24h stats refresh failed: %v", err)
		// previous payload (or the empty first-run payload) served stale
		c.snap.Stale = true
		return c.snap
	}
	c.snap = next
	c.hasData = true
	return c.snap
}

// refresh computes a full new snapshot; it never mutates the served one.
func (c *Cache) refresh(ctx context.Context) (models.TopStats, error) {
	universe := c.uni.Get(ctx)
	if len(universe) == 0 {
		return models.TopStats{}, errors.New("empty universe")
	}
	stats := c.venue.Fetch24hStats(ctx, universe)
	if len(stats) == 0 {
		return models.TopStats{}, errors.New("no 24h statistics returned")
	}

	rows := make([]models.Ticker24h, 0, len(stats))
	for _, t := range stats {
		if t.LastPrice < c.cfg.PriceFloor {
			continue
		}
		rows = append(rows, t)
	}

	// liquid set: top-N by 24h quote volume
	sort.Slice(rows, func(i, j int) bool { return rows[i].QuoteVolume > rows[j].QuoteVolume })
	if len(rows) > c.cfg.TopN {
		rows = rows[:c.cfg.TopN]
	}

	byPct := append([]models.Ticker24h(nil), rows...)
	sort.Slice(byPct, func(i, j int) bool {
		return byPct[i].PriceChangePercent > byPct[j].PriceChangePercent
	})

	gainers := make([]models.Mover, 0, topMovers)
	for _, t := range byPct {
		if len(gainers) == topMovers {
			break
		}
		gainers = append(gainers, toMover(t))
	}
	losers := make([]models.Mover, 0, topMovers)
	for i := len(byPct) - 1; i >= 0 && len(losers) < topMovers; i-- {
		losers = append(losers, toMover(byPct[i]))
	}

	return models.TopStats{
		UpdatedAt:    c.now(),
		Stale:        false,
		Gainers:      gainers,
		Losers:       losers,
		UniverseSize: len(universe),
		Filters: models.StatsFilters{
			TopN:             c.cfg.TopN,
			PriceFloor:       c.cfg.PriceFloor,
			UniverseCachedAt: c.uni.UpdatedAt(),
		},
	}, nil
}

func toMover(t models.Ticker24h) models.Mover {
	return models.Mover{
		Symbol:             t.Symbol,
		LastPrice:          t.LastPrice,
		HighPrice:          t.HighPrice,
		LowPrice:           t.LowPrice,
		PriceChangePercent: t.PriceChangePercent,
	}
}
