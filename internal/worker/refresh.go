package worker

import (
	"context"
	"log/slog"
	"time"
)

// Refresher fetches and stores fresh market data.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// RateWorker periodically refreshes exchange rates and the gold price. Failures are logged
// and the caches keep serving their last good values.
type RateWorker struct {
	rates    Refresher
	gold     Refresher // optional
	interval time.Duration
}

// NewRateWorker creates a new RateWorker. gold may be nil.
func NewRateWorker(rates, gold Refresher, interval time.Duration) *RateWorker {
	if rates == nil {
		panic("worker.NewRateWorker: rates refresher must not be nil")
	}
	return &RateWorker{
		rates:    rates,
		gold:     gold,
		interval: interval,
	}
}

func (w *RateWorker) refresh(ctx context.Context) {
	if err := w.rates.Refresh(ctx); err != nil {
		slog.Error("RateWorker: rate refresh failed", "error", err)
	} else {
		slog.Info("RateWorker: rates refreshed")
	}

	if w.gold == nil {
		return
	}
	if err := w.gold.Refresh(ctx); err != nil {
		slog.Error("RateWorker: gold refresh failed", "error", err)
	} else {
		slog.Info("RateWorker: gold price refreshed")
	}
}

// Run starts the worker loop. It blocks until the context is cancelled.
func (w *RateWorker) Run(ctx context.Context) {
	slog.Info("RateWorker: starting", "interval", w.interval)

	// Refresh immediately on startup
	w.refresh(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("RateWorker: shutting down")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}
