package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"marketdesk/pkg/logger"
)

type venueSource interface {
	FetchUniverse(ctx context.Context) []string
}

type Config struct {
	TTL      time.Duration
	Fallback []string // configured instrument set for a cold start with no upstream
}

// Cache holds the tradable-instrument universe. Reads within TTL serve the
// cached set; an expired read triggers one synchronous refresh attempt. On
// refresh failure the previous set is served stale; with no previous set the
// configured fallback is synthesized.
type Cache struct {
	src venueSource
	cfg Config
	now func() time.Time

	mu        sync.RWMutex
	symbols   []string
	updatedAt time.Time
	stale     bool
}

func NewCache(src venueSource, cfg Config) *Cache {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	fallback := make([]string, 0, len(cfg.Fallback))
	for _, s := range cfg.Fallback {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			fallback = append(fallback, s)
		}
	}
	cfg.Fallback = fallback
	return &Cache{
		src:   src,
		cfg:   cfg,
		now:   time.Now,
		stale: true,
	}
}

// Get returns the current universe, refreshing at most once per call.
func (c *Cache) Get(ctx context.Context) []string {
	c.mu.RLock()
	fresh := len(c.symbols) > 0 && c.now().Sub(c.updatedAt) <= c.cfg.TTL
	cached := c.symbols
	c.mu.RUnlock()
	if fresh {
		return append([]string(nil), cached...)
	}

	// fetch outside the lock; duplicate upstream work between concurrent
	// callers is acceptable, a torn snapshot is not
	syms := c.src.FetchUniverse(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case len(syms) > 0:
		c.symbols = syms
		c.updatedAt = c.now()
		c.stale = false
	case len(c.symbols) > 0:
		// keep serving the previous set; next read retries
		c.stale = true
	default:
		logger.Warn("universe refresh failed with no prior payload, using configured fallback (%d symbols)", len(c.cfg.Fallback))
		c.symbols = append([]string(nil), c.cfg.Fallback...)
		c.updatedAt = c.now()
		c.stale = true
	}
	return append([]string(nil), c.symbols...)
}

func (c *Cache) UpdatedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.updatedAt
}

func (c *Cache) Stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stale
}
