package main

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/config"
	"github.com/mtlprog/finledger/internal/database"
	"github.com/mtlprog/finledger/internal/market"
	"github.com/mtlprog/finledger/internal/rates"
	"github.com/mtlprog/finledger/internal/store"
	"github.com/mtlprog/finledger/internal/tracker"
	"github.com/mtlprog/finledger/internal/valuation"
)

// app wires the store, market data caches and tracker for one command invocation.
type app struct {
	tracker *tracker.Tracker
	rates   *rates.Cache
	gold    *market.Service
	pool    *pgxpool.Pool
}

// newApp opens the configured store. A oneShot app serves rates and gold quotes
// synchronously: the process exits before a background refresh could land.
func newApp(ctx context.Context, cfg config.Config, oneShot bool) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{}
	backend, err := a.openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	st := store.New(backend)

	rateSource := rates.NewHTTPSource(cfg.RatesURL, cfg.RatesRetryDelay, cfg.RatesRetryMax)
	a.rates = rates.NewCache(rateSource, st, cfg.RatesBase, cfg.RatesTTL)

	coingecko := market.NewCoinGeckoClient(cfg.GoldURL, cfg.GoldRetryDelay, cfg.GoldRetryMax)
	a.gold = market.NewService(coingecko, st, cfg.GoldTTL)

	var (
		rateProvider tracker.RateProvider = a.rates
		goldPricer   valuation.GoldPricer = a.gold
	)
	if oneShot {
		rateProvider, goldPricer = a.rates.Waiting(), a.gold.Waiting()
	}
	a.tracker = tracker.New(st, rateProvider, valuation.NewService(goldPricer), tracker.Options{
		DisplayCurrency: cfg.DisplayCurrency,
		StaleAssetAge:   cfg.StaleAssetAge,
	})
	return a, nil
}

func (a *app) openBackend(ctx context.Context, cfg config.Config) (store.Backend, error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := database.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.pool = pool
		slog.Info("using postgres store")
		return store.NewPgBackend(pool), nil
	case config.BackendMemory:
		slog.Warn("using in-memory store, data is lost on exit")
		return store.NewMemoryBackend(), nil
	default:
		backend, err := store.NewFileBackend(cfg.StoreDir)
		if err != nil {
			return nil, fmt.Errorf("opening store directory: %w", err)
		}
		slog.Info("using file store", "dir", cfg.StoreDir)
		return backend, nil
	}
}

// Close releases the database pool, if any.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

type categoryAmount struct {
	name   string
	amount decimal.Decimal
}

// sortedKeys orders category totals by amount, largest first, then by name.
func sortedKeys(m map[string]decimal.Decimal) []categoryAmount {
	out := lo.MapToSlice(m, func(k string, v decimal.Decimal) categoryAmount {
		return categoryAmount{name: k, amount: v}
	})
	slices.SortFunc(out, func(a, b categoryAmount) int {
		if c := b.amount.Cmp(a.amount); c != 0 {
			return c
		}
		return strings.Compare(a.name, b.name)
	})
	return out
}
