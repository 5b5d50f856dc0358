package rates

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
)

const backgroundRefreshTimeout = 30 * time.Second

// Cache keeps the last good rate snapshot for the configured base currency, in memory and in
// the exchange_rates_cache collection. Snapshots for other bases are rebased from it.
type Cache struct {
	source Source
	store  *store.Store
	base   string
	ttl    time.Duration
	now    func() time.Time

	mu         sync.RWMutex
	last       *domain.ExchangeRateSnapshot
	loaded     bool
	refreshing atomic.Bool
}

// NewCache creates a rate cache. st may be nil to disable persistence.
func NewCache(source Source, st *store.Store, base string, ttl time.Duration) *Cache {
	if source == nil {
		panic("rates.NewCache: source must not be nil")
	}
	return &Cache{
		source: source,
		store:  st,
		base:   base,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Base returns the currency rates are fetched against.
func (c *Cache) Base() string { return c.base }

// Snapshot returns rates relative to base (the configured base when empty). A fresh cached
// snapshot is returned as is; otherwise a fetch is attempted, falling back to the last good
// snapshot and then to the static table. It never fails.
func (c *Cache) Snapshot(ctx context.Context, base string) domain.ExchangeRateSnapshot {
	base = c.baseOr(base)
	last, ok := c.lastGood(ctx)
	if ok && last.Fresh(c.now(), c.ttl) {
		return last.Rebase(base)
	}

	fetched, err := c.fetch(ctx)
	if err == nil {
		return fetched.Rebase(base)
	}
	if ok {
		slog.Warn("rate refresh failed, using stale rates", "fetched_at", last.FetchedAt, "error", err)
		return last.Rebase(base)
	}
	slog.Warn("rate refresh failed, using fallback rates", "error", err)
	return Fallback(base, c.now())
}

// Current returns the best snapshot available without waiting on the network. When that
// snapshot is stale or missing, a single background refresh is started.
func (c *Cache) Current(ctx context.Context, base string) domain.ExchangeRateSnapshot {
	base = c.baseOr(base)
	last, ok := c.lastGood(ctx)
	if !ok || !last.Fresh(c.now(), c.ttl) {
		c.refreshInBackground()
	}
	if ok {
		return last.Rebase(base)
	}
	return Fallback(base, c.now())
}

// Waiting returns a view of the cache whose Current waits for a fetch when the cached
// snapshot is stale or missing. One-shot commands use it; they exit before a background
// refresh could land.
func (c *Cache) Waiting() *WaitingCache { return &WaitingCache{cache: c} }

// WaitingCache serves Current through Cache.Snapshot.
type WaitingCache struct {
	cache *Cache
}

// Current returns the snapshot for base, fetching first when the cached one is not fresh.
func (w *WaitingCache) Current(ctx context.Context, base string) domain.ExchangeRateSnapshot {
	return w.cache.Snapshot(ctx, base)
}

// Refresh fetches and stores new rates regardless of age.
func (c *Cache) Refresh(ctx context.Context) error {
	_, err := c.fetch(ctx)
	return err
}

func (c *Cache) baseOr(base string) string {
	if base == "" {
		return c.base
	}
	return base
}

func (c *Cache) refreshInBackground() {
	if !c.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer c.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()
		if err := c.Refresh(ctx); err != nil {
			slog.Warn("background rate refresh failed", "error", err)
		}
	}()
}

// lastGood returns the in-memory snapshot, consulting the persisted copy the first time.
func (c *Cache) lastGood(ctx context.Context) (domain.ExchangeRateSnapshot, bool) {
	c.mu.RLock()
	last, loaded := c.last, c.loaded
	c.mu.RUnlock()
	if last != nil {
		return *last, true
	}
	if loaded || c.store == nil {
		return domain.ExchangeRateSnapshot{}, false
	}

	persisted, ok := store.LoadScalar[domain.CachedRates](ctx, c.store, store.RatesCache)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loaded = true
	if c.last != nil {
		return *c.last, true
	}
	if !ok || len(persisted.Rates) == 0 {
		return domain.ExchangeRateSnapshot{}, false
	}
	snap := persisted.Snapshot(c.base)
	if snap.Base != c.base {
		snap = snap.Rebase(c.base)
	}
	c.last = &snap
	return snap, true
}

func (c *Cache) fetch(ctx context.Context) (domain.ExchangeRateSnapshot, error) {
	rates, err := c.source.Fetch(ctx, c.base)
	if err != nil {
		return domain.ExchangeRateSnapshot{}, fmt.Errorf("fetching rates for %s: %w", c.base, err)
	}
	rates = maps.Clone(rates)
	rates[c.base] = decimal.NewFromInt(1)
	snap := domain.ExchangeRateSnapshot{Base: c.base, Rates: rates, FetchedAt: c.now().UTC()}

	c.mu.Lock()
	c.last = &snap
	c.loaded = true
	c.mu.Unlock()

	if c.store != nil {
		if err := store.SaveScalar(ctx, c.store, store.RatesCache, domain.CachedRatesOf(snap)); err != nil {
			slog.Warn("persisting rates failed", "error", err)
		}
	}
	slog.Info("exchange rates refreshed", "base", c.base, "currencies", len(rates))
	return snap, nil
}
