package market

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
)

// FallbackGoldPerGramUSD is the estimate used when no quote was ever fetched.
var FallbackGoldPerGramUSD = decimal.RequireFromString("163.4")

const backgroundRefreshTimeout = 30 * time.Second

// GoldSource quotes pure gold in USD per gram.
type GoldSource interface {
	GoldPerGramUSD(ctx context.Context) (decimal.Decimal, error)
}

type storedPrice struct {
	GoldUSDPerGram decimal.Decimal `json:"goldUsdPerGram"`
	Timestamp      int64           `json:"timestamp"`
}

// Service caches the gold price and converts it to display currencies.
type Service struct {
	source GoldSource
	store  *store.Store
	ttl    time.Duration
	now    func() time.Time

	mu         sync.RWMutex
	last       *storedPrice
	loaded     bool
	refreshing atomic.Bool
}

// NewService creates a market price service. st may be nil to disable persistence.
func NewService(source GoldSource, st *store.Store, ttl time.Duration) *Service {
	if source == nil {
		panic("market.NewService: source must not be nil")
	}
	return &Service{source: source, store: st, ttl: ttl, now: time.Now}
}

// GoldPricePerGram returns the gold price in currency without waiting on the network.
// The USD quote is converted with snap before any multiplication by weight. A stale quote,
// the built-in estimate, or conversion through fallback rates yields IsEstimate. A stale or
// missing quote starts a background refresh.
func (s *Service) GoldPricePerGram(ctx context.Context, currency string, snap domain.ExchangeRateSnapshot) domain.GoldQuote {
	last, ok := s.lastGood(ctx)
	usd := FallbackGoldPerGramUSD
	updated := s.now().UTC()
	estimate := true
	if ok {
		usd = last.GoldUSDPerGram
		updated = time.UnixMilli(last.Timestamp).UTC()
		estimate = s.now().Sub(updated) >= s.ttl
	}
	if estimate {
		s.refreshInBackground()
	}
	if snap.IsFallback && currency != "USD" {
		estimate = true
	}

	perGram := usd
	if currency != "USD" {
		perGram = usd.Mul(snap.Rate(currency)).Div(snap.Rate("USD"))
	}
	return domain.NewGoldQuote(currency, perGram, estimate, updated)
}

// Waiting returns a view of the service whose quotes fetch synchronously when the cached
// quote is stale or missing. One-shot commands use it; they exit before a background
// refresh could land.
func (s *Service) Waiting() *WaitingService { return &WaitingService{service: s} }

// WaitingService refreshes a stale quote before answering.
type WaitingService struct {
	service *Service
}

// GoldPricePerGram refreshes a stale or missing quote, then answers like Service.GoldPricePerGram.
// A failed refresh leaves the last known price or the estimate in place.
func (w *WaitingService) GoldPricePerGram(ctx context.Context, currency string, snap domain.ExchangeRateSnapshot) domain.GoldQuote {
	if !w.service.fresh(ctx) {
		if err := w.service.Refresh(ctx); err != nil {
			slog.Warn("gold refresh failed, using last known price", "error", err)
		}
	}
	return w.service.GoldPricePerGram(ctx, currency, snap)
}

func (s *Service) fresh(ctx context.Context) bool {
	last, ok := s.lastGood(ctx)
	return ok && s.now().Sub(time.UnixMilli(last.Timestamp)) < s.ttl
}

// Refresh fetches and stores a new gold quote.
func (s *Service) Refresh(ctx context.Context) error {
	price, err := s.source.GoldPerGramUSD(ctx)
	if err != nil {
		return fmt.Errorf("fetching gold price: %w", err)
	}
	p := storedPrice{GoldUSDPerGram: price, Timestamp: s.now().UnixMilli()}

	s.mu.Lock()
	s.last = &p
	s.loaded = true
	s.mu.Unlock()

	if s.store != nil {
		if err := store.SaveScalar(ctx, s.store, store.MarketPrices, p); err != nil {
			slog.Warn("persisting gold price failed", "error", err)
		}
	}
	slog.Info("gold price refreshed", "usd_per_gram", price.StringFixed(2))
	return nil
}

func (s *Service) refreshInBackground() {
	if !s.refreshing.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.refreshing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), backgroundRefreshTimeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			slog.Warn("background gold refresh failed", "error", err)
		}
	}()
}

func (s *Service) lastGood(ctx context.Context) (storedPrice, bool) {
	s.mu.RLock()
	last, loaded := s.last, s.loaded
	s.mu.RUnlock()
	if last != nil {
		return *last, true
	}
	if loaded || s.store == nil {
		return storedPrice{}, false
	}

	persisted, ok := store.LoadScalar[storedPrice](ctx, s.store, store.MarketPrices)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = true
	if s.last != nil {
		return *s.last, true
	}
	if !ok || !persisted.GoldUSDPerGram.IsPositive() {
		return storedPrice{}, false
	}
	s.last = &persisted
	return persisted, true
}
