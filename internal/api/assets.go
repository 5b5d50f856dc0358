package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/finledger/internal/domain"
)

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.tracker.SearchAssets(r.Context(), r.URL.Query().Get("q"))
	if assets == nil {
		assets = []domain.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

// ListStaleAssets handles GET /api/v1/assets/stale.
func (h *Handler) ListStaleAssets(w http.ResponseWriter, r *http.Request) {
	assets := h.tracker.StaleAssets(r.Context())
	if assets == nil {
		assets = []domain.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

// UpsertAsset handles POST /api/v1/assets.
func (h *Handler) UpsertAsset(w http.ResponseWriter, r *http.Request) {
	var a domain.Asset
	if !decodeBody(w, r, &a) {
		return
	}
	stored, created, err := h.tracker.UpsertAsset(r.Context(), a)
	if err != nil {
		writeTrackerError(w, "failed to save asset", err)
		return
	}
	writeJSON(w, createdStatus(created), stored)
}

// DeleteAsset handles DELETE /api/v1/assets/{id}.
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := h.tracker.DeleteAsset(r.Context(), r.PathValue("id")); err != nil {
		writeTrackerError(w, "failed to delete asset", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// VerifyAsset handles POST /api/v1/assets/{id}/verify.
func (h *Handler) VerifyAsset(w http.ResponseWriter, r *http.Request) {
	a, err := h.tracker.VerifyAsset(r.Context(), r.PathValue("id"))
	if err != nil {
		writeTrackerError(w, "failed to verify asset", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// PutMarketPrice handles PUT /api/v1/assets/{id}/market-price. A null price clears the override.
func (h *Handler) PutMarketPrice(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Price *decimal.Decimal `json:"price"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	a, err := h.tracker.UpdateMarketPrice(r.Context(), r.PathValue("id"), body.Price)
	if err != nil {
		writeTrackerError(w, "failed to update market price", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// GetValuation handles GET /api/v1/assets/{id}/valuation.
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	code, ok := currencyParam(w, r)
	if !ok {
		return
	}
	res, err := h.tracker.ValuateByID(r.Context(), r.PathValue("id"), code)
	if err != nil {
		writeTrackerError(w, "failed to valuate asset", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetNetWorth handles GET /api/v1/net-worth.
func (h *Handler) GetNetWorth(w http.ResponseWriter, r *http.Request) {
	code, ok := currencyParam(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.tracker.NetWorth(r.Context(), code))
}
