package service

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"marketdesk/internal/models"
	"marketdesk/pkg/logger"
)

const (
	topMovers     = 10
	trendingLabel = "Session-based"
	minBase       = 1e-12
)

type priceSource interface {
	LatestPrices(ctx context.Context) (map[string]float64, error)
}

type Config struct {
	TTL              time.Duration
	LossThresholdPct float64
	RecoveryPct      float64
}

// instState is the per-instrument session baseline. Created on the first
// observation after a reset, cleared only by Reset, never by TTL.
type instState struct {
	first        float64
	high         float64
	low          float64
	lastLocalLow float64
}

// Detector tracks session momentum per instrument. A laggard has fallen at
// least LossThresholdPct from its session high; a leader printed a new
// session high or recovered RecoveryPct from its last local low. One
// instrument may be both in the same pass.
type Detector struct {
	src priceSource
	cfg Config
	now func() time.Time

	mu      sync.Mutex
	states  map[string]*instState
	snap    models.TrendingSnapshot
	hasData bool
}

func NewDetector(src priceSource, cfg Config) *Detector {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	d := &Detector{
		src: src,
		cfg: cfg,
		now: time.Now,
	}
	d.resetLocked()
	return d
}

// Get returns the session leader/laggard view, refreshing at most once per
// call when the cached snapshot is past its TTL.
func (d *Detector) Get(ctx context.Context) models.TrendingSnapshot {
	d.mu.Lock()
	fresh := d.hasData && d.now().Sub(d.snap.UpdatedAt) <= d.cfg.TTL
	snap := d.snap
	d.mu.Unlock()
	if fresh {
		return snap
	}
	if err := d.Refresh(ctx); err != nil {
		logger.Warn("trending refresh failed: %v", err)
		d.mu.Lock()
		d.snap.Stale = true
		snap = d.snap
		d.mu.Unlock()
		return snap
	}
	d.mu.Lock()
	snap = d.snap
	d.mu.Unlock()
	return snap
}

// Refresh folds the latest observed prices into the per-instrument states
// and recomputes the cached snapshot. The snapshot is swapped in whole.
func (d *Detector) Refresh(ctx context.Context) error {
	prices, err := d.src.LatestPrices(ctx)
	if err != nil {
		return err
	}

	symbols := make([]string, 0, len(prices))
	for sym := range prices {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	d.mu.Lock()
	defer d.mu.Unlock()

	var gainers, losers []models.Mover
	for _, sym := range symbols {
		gainer, loser := d.observeLocked(sym, prices[sym])
		if gainer != nil {
			gainers = append(gainers, *gainer)
		}
		if loser != nil {
			losers = append(losers, *loser)
		}
	}

	sort.Slice(gainers, func(i, j int) bool {
		return gainers[i].PriceChangePercent > gainers[j].PriceChangePercent
	})
	sort.Slice(losers, func(i, j int) bool {
		return losers[i].PriceChangePercent < losers[j].PriceChangePercent
	})
	if len(gainers) > topMovers {
		gainers = gainers[:topMovers]
	}
	if len(losers) > topMovers {
		losers = losers[:topMovers]
	}

	d.snap = models.TrendingSnapshot{
		UpdatedAt:    d.now(),
		Stale:        false,
		Gainers:      gainers,
		Losers:       losers,
		UniverseSize: len(prices),
		Meta: models.TrendingMeta{
			LossPct:     d.cfg.LossThresholdPct,
			RecoveryPct: d.cfg.RecoveryPct,
			Label:       trendingLabel,
		},
	}
	d.hasData = true
	return nil
}

// observeLocked folds one price into the instrument state and reports the
// leader/laggard signals it produced. The two are independent.
func (d *Detector) observeLocked(sym string, price float64) (gainer, loser *models.Mover) {
	st, ok := d.states[sym]
	if !ok {
		st = &instState{first: price, high: price, low: price, lastLocalLow: price}
		d.states[sym] = st
	}

	if price > st.high {
		st.high = price
	}
	if price < st.low {
		st.low = price
		st.lastLocalLow = price
	}

	// laggard: fell at least the loss threshold from the session high
	if st.high > 0 && price <= st.high*(1-d.cfg.LossThresholdPct/100) {
		dropPct := (st.high - price) / st.high * 100
		loser = &models.Mover{
			Symbol:             sym,
			LastPrice:          price,
			HighPrice:          st.high,
			LowPrice:           st.low,
			PriceChangePercent: -round4(dropPct),
		}
	}

	// leader: new session high, or a recovery off the last local low
	var gainPct float64
	gained := false
	switch {
	case price >= st.high:
		gainPct = (price/math.Max(st.first, minBase) - 1) * 100
		gained = true
	case price >= st.lastLocalLow*(1+d.cfg.RecoveryPct/100):
		gainPct = (price/math.Max(st.lastLocalLow, minBase) - 1) * 100
		gained = true
	}
	if gained && gainPct > 0 {
		gainer = &models.Mover{
			Symbol:             sym,
			LastPrice:          price,
			HighPrice:          st.high,
			LowPrice:           st.low,
			PriceChangePercent: round4(gainPct),
		}
	}
	return gainer, loser
}

// Reset drops all per-instrument state and the cached snapshot. Used
// together with clearing the tick history so a stale session baseline
// cannot outlive the data it was computed from.
func (d *Detector) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *Detector) resetLocked() {
	d.states = make(map[string]*instState)
	d.snap = models.TrendingSnapshot{
		Stale: true,
		Meta: models.TrendingMeta{
			LossPct:     d.cfg.LossThresholdPct,
			RecoveryPct: d.cfg.RecoveryPct,
			Label:       trendingLabel,
		},
	}
	d.hasData = false
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
