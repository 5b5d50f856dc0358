package tracker

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/currency"
	"github.com/mtlprog/finledger/internal/domain"
	"github.com/mtlprog/finledger/internal/store"
	"github.com/mtlprog/finledger/internal/valuation"
)

// LoadAssets returns the tracked assets, one per id.
func (t *Tracker) LoadAssets(ctx context.Context) []domain.Asset {
	return t.assets.Records(ctx)
}

// Asset returns the asset with id.
func (t *Tracker) Asset(ctx context.Context, id string) (domain.Asset, error) {
	a, ok := lo.Find(t.LoadAssets(ctx), func(a domain.Asset) bool { return a.ID == id })
	if !ok {
		return domain.Asset{}, notFound("asset", id)
	}
	return a, nil
}

// Valuate values a in the display currency code.
func (t *Tracker) Valuate(ctx context.Context, a domain.Asset, code string) domain.ValuationResult {
	display := t.DisplayCurrency(code)
	return t.valuer.Valuate(ctx, a, display, t.rates.Current(ctx, display))
}

// ValuateByID values the stored asset with id.
func (t *Tracker) ValuateByID(ctx context.Context, id, code string) (domain.ValuationResult, error) {
	a, err := t.Asset(ctx, id)
	if err != nil {
		return domain.ValuationResult{}, err
	}
	return t.Valuate(ctx, a, code), nil
}

// NetWorth values every tracked asset in the display currency code.
func (t *Tracker) NetWorth(ctx context.Context, code string) domain.NetWorth {
	display := t.DisplayCurrency(code)
	return t.valuer.NetWorth(ctx, t.LoadAssets(ctx), display, t.rates.Current(ctx, display))
}

// StaleAssets lists the assets not verified within the configured age.
func (t *Tracker) StaleAssets(ctx context.Context) []domain.Asset {
	return valuation.StaleAssets(t.LoadAssets(ctx), t.now(), t.opts.StaleAssetAge)
}

// SearchAssets returns the assets whose name, type, description, notes or location contain
// query, ignoring case. An empty query matches everything.
func (t *Tracker) SearchAssets(ctx context.Context, query string) []domain.Asset {
	q := strings.ToLower(strings.TrimSpace(query))
	return lo.Filter(t.LoadAssets(ctx), func(a domain.Asset, _ int) bool {
		if q == "" {
			return true
		}
		fields := []string{a.Name, string(a.Type), a.Description, a.Notes, a.StorageLocation}
		return lo.SomeBy(fields, func(f string) bool {
			return strings.Contains(strings.ToLower(f), q)
		})
	})
}

// UpsertAsset validates and stores a. Attributes that do not fit the asset type are rejected
// with an error wrapping domain.ErrInvalidAsset.
func (t *Tracker) UpsertAsset(ctx context.Context, a domain.Asset) (domain.Asset, bool, error) {
	a.ID = strings.TrimSpace(a.ID)
	a.Name = strings.TrimSpace(a.Name)
	if a.Name == "" {
		return domain.Asset{}, false, fmt.Errorf("%w: asset name is required", ErrInvalid)
	}
	if a.Type == "" {
		a.Type = domain.AssetOther
	}
	if a.PurchasePrice.IsNegative() {
		return domain.Asset{}, false, fmt.Errorf("%w: negative purchase price %s", ErrInvalid, a.PurchasePrice)
	}
	if _, err := a.Variant(t.now().Year()); err != nil {
		return domain.Asset{}, false, err
	}
	a.Currency = currency.Normalize(a.Currency, t.opts.DisplayCurrency)

	t.mu.Lock()
	defer t.mu.Unlock()

	if a.ID != "" {
		if old, err := t.Asset(ctx, a.ID); err == nil {
			a = a.Inherit(old)
		}
	}
	now := t.now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	stored, created, err := t.assets.Upsert(ctx, a)
	if err != nil {
		return domain.Asset{}, false, fmt.Errorf("saving asset: %w", err)
	}
	return stored, created, nil
}

// DeleteAsset removes the asset with id.
func (t *Tracker) DeleteAsset(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := store.DeleteFromAll(ctx, id, t.assets)
	if errors.Is(err, store.ErrNotFound) {
		return notFound("asset", id)
	}
	return err
}

// VerifyAsset records that the asset was checked today.
func (t *Tracker) VerifyAsset(ctx context.Context, id string) (domain.Asset, error) {
	return t.updateAsset(ctx, id, func(a *domain.Asset) {
		a.LastVerifiedDate = t.today()
	})
}

// UpdateMarketPrice sets or, with a nil price, clears the asset's market price override.
// Setting a price also counts as verifying the asset.
func (t *Tracker) UpdateMarketPrice(ctx context.Context, id string, price *decimal.Decimal) (domain.Asset, error) {
	if price != nil && price.IsNegative() {
		return domain.Asset{}, fmt.Errorf("%w: negative market price %s", ErrInvalid, price)
	}
	return t.updateAsset(ctx, id, func(a *domain.Asset) {
		a.CurrentMarketPrice = price
		if price != nil {
			a.LastVerifiedDate = t.today()
		}
	})
}

func (t *Tracker) updateAsset(ctx context.Context, id string, update func(*domain.Asset)) (domain.Asset, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, err := t.Asset(ctx, id)
	if err != nil {
		return domain.Asset{}, err
	}
	update(&a)
	a.UpdatedAt = t.now().UTC()
	if _, err := t.assets.UpdateExisting(ctx, a); err != nil {
		return domain.Asset{}, fmt.Errorf("saving asset %s: %w", id, err)
	}
	return a, nil
}
